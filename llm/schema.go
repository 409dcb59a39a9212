package llm

import (
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
)

// SuggestionSchemaName names the structured reply towards the providers
const SuggestionSchemaName = "output_generated"

// Suggestion is the structured reply of the completion service
type Suggestion struct {
	ImprovedCode string `json:"improved_code" jsonschema:"description=The complete modified code snippet without markdown fences"`
	Explanation  string `json:"explanation" jsonschema:"description=Step-by-step explanation of the changes"`
}

// SuggestionSchema reflects Suggestion into an inline JSON schema that
// strict structured-output endpoints accept: no $schema or $id keys,
// every field required, no additional properties.
func SuggestionSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
	}
	schema := reflector.Reflect(&Suggestion{})
	schema.Version = ""
	return schema
}

// DecodeSuggestion validates the raw reply content and extracts both fields.
// Any missing or non-string field is an ErrSchemaViolation; extra fields are ignored.
func DecodeSuggestion(content string) (Suggestion, error) {
	if !gjson.Valid(content) {
		return Suggestion{}, fmt.Errorf("%w: reply is not valid JSON", ErrSchemaViolation)
	}

	reply := gjson.Parse(content)
	if !reply.IsObject() {
		return Suggestion{}, fmt.Errorf("%w: reply is not a JSON object", ErrSchemaViolation)
	}

	improvedCode, err := stringField(reply, "improved_code")
	if err != nil {
		return Suggestion{}, err
	}
	explanation, err := stringField(reply, "explanation")
	if err != nil {
		return Suggestion{}, err
	}

	return Suggestion{
		ImprovedCode: improvedCode,
		Explanation:  explanation,
	}, nil
}

func stringField(reply gjson.Result, name string) (string, error) {
	field := reply.Get(name)
	if !field.Exists() {
		return "", fmt.Errorf("%w: field %q is missing", ErrSchemaViolation, name)
	}
	if field.Type != gjson.String {
		return "", fmt.Errorf("%w: field %q is %s, expected string", ErrSchemaViolation, name, field.Type)
	}
	return field.String(), nil
}
