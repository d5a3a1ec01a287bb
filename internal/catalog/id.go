package catalog

import (
	"strings"

	"github.com/google/uuid"
)

// Namespace seeds deterministic ids for catalog rows imported from files, so
// re-importing the same file updates rows in place.
var Namespace = uuid.MustParse("6f1c2a4e-9b7d-5e3f-8a21-4c0d9e7b6a55")

func v5(ns uuid.UUID, name string) uuid.UUID {
	return uuid.NewSHA1(ns, []byte(name))
}

func canonical(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(strings.TrimSpace(s)), " "))
}

func MaterialID(ns uuid.UUID, name string) string {
	return v5(ns, "material:"+canonical(name)).String()
}
