package core

import (
	"testing"

	"vitalcore/testutil"
)

func TestCoreDoesNotImportOuterLayers(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.Within("internal/cli", "internal/config", "internal/logging"),
		"core is driven by the cli, not the other way round")
}

func TestEnginesDoNotImportCore(t *testing.T) {
	for _, dir := range []string{"../insight", "../recommend", "../catalog", "../blob/core"} {
		testutil.AssertNoDirectImports(t, dir, testutil.Within("internal/core", "internal/cli"),
			dir+" is a leaf used by core")
	}
}
