package domain

import (
	"testing"

	"vitalcore/testutil"
)

func TestDomainStaysOnStandardLibrary(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.Any(testutil.Internal, testutil.ThirdParty),
		"domain types are shared by every layer and must not pull in implementations")
}
