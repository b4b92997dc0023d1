//go:build integration

package counterstore_test

import (
	"testing"

	"github.com/rwool/viewcounter/pkg/service/internal/mongotest"
	"github.com/rwool/viewcounter/pkg/service/internal/storetest"
)

func TestMongoAdapter(t *testing.T) {
	t.Parallel()
	m := mongotest.Connect(t)
	storetest.Run(t, m)
}
