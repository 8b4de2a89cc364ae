// Package pathutil turns OpenAPI path templates and server declarations into
// the route keys of a compiled schema.
//
// Route keys use the colon syntax of Express style routers: the template
// "/pets/{petId}" under the base path "/v1" becomes "/v1/pets/:petId".
//
//	for _, base := range pathutil.BasePaths(doc, true) {
//	    key := pathutil.Join(base, pathutil.Template("/pets/{petId}"))
//	}
//
// [SanitizeOutputPath] validates and cleans output file paths for the CLI.
// It rejects symlinks:
//
//	safe, err := pathutil.SanitizeOutputPath(userProvidedPath)
//	if err != nil {
//	    return err
//	}
package pathutil
