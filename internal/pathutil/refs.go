package pathutil

import "github.com/erraggy/schemabuilder/internal/schemautil"

// RefPrefixDefinitions is the reference prefix of OAS 2.0 named schemas.
const RefPrefixDefinitions = "#/definitions/"

// DefinitionRef builds "#/definitions/{name}" (OAS 2.0).
func DefinitionRef(name string) string {
	return RefPrefixDefinitions + schemautil.EscapeToken(name)
}
