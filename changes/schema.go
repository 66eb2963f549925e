/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changes

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// PayloadSchema reflects the JSON schema for the ChangeSet payload. The
// schema is embedded in generation prompts so the collaborator knows the
// exact shape we will parse.
func PayloadSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	return r.Reflect(&ChangeSet{})
}

// PayloadSchemaJSON returns the payload schema as indented JSON.
func PayloadSchemaJSON() (string, error) {
	b, err := json.MarshalIndent(PayloadSchema(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
