package loader

import (
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/morozRed/capibara/internal/model"
)

// decodeStrict decodes a YAML mapping into out, rejecting any missing
// required key. Keys out does not declare are ignored.
func decodeStrict(data []byte, out any, required ...string) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return errors.New("empty document")
	}
	if err := requireKeys(doc.Content[0], required...); err != nil {
		return err
	}
	return doc.Decode(out)
}

func requireKeys(node *yaml.Node, keys ...string) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: expected a mapping", node.Line)
	}
	present := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		present[node.Content[i].Value] = true
	}
	for _, key := range keys {
		if !present[key] {
			return errors.Errorf("missing field %q", key)
		}
	}
	return nil
}

type functionMacroBody struct {
	Returns    model.Return           `yaml:"returns"`
	Parameters []model.MacroParameter `yaml:"parameters"`
}

// decodeMacroKind accepts a single-key mapping ({function: {...}}), a local
// tag (!function {...}) or, for object macros, the bare scalar "object".
func decodeMacroKind(node *yaml.Node) (model.MacroKind, error) {
	if node == nil || node.Kind == 0 {
		return nil, errors.New("missing macro kind")
	}

	var (
		name string
		body *yaml.Node
	)
	localTag := strings.HasPrefix(node.Tag, "!") && !strings.HasPrefix(node.Tag, "!!")

	switch {
	case localTag:
		name = strings.TrimPrefix(node.Tag, "!")
		body = node
	case node.Kind == yaml.ScalarNode:
		name = node.Value
	case node.Kind == yaml.MappingNode:
		if len(node.Content) != 2 {
			return nil, errors.Errorf("line %d: macro kind must have exactly one variant", node.Line)
		}
		name = node.Content[0].Value
		body = node.Content[1]
	default:
		return nil, errors.Errorf("line %d: unsupported macro kind shape", node.Line)
	}

	switch name {
	case model.MacroKindObject:
		if body != nil && body.Kind == yaml.MappingNode && len(body.Content) > 0 {
			return nil, errors.Errorf("line %d: object macro takes no fields", body.Line)
		}
		return model.ObjectMacro{}, nil
	case model.MacroKindFunction:
		if body == nil {
			return nil, errors.Errorf("line %d: function macro needs returns and parameters", node.Line)
		}
		if err := requireKeys(body, "returns", "parameters"); err != nil {
			return nil, err
		}
		var fn functionMacroBody
		if err := body.Decode(&fn); err != nil {
			return nil, err
		}
		return model.FunctionMacro{
			Returns:    fn.Returns,
			Parameters: model.NonNil(fn.Parameters),
		}, nil
	default:
		return nil, errors.Errorf("unknown macro kind %q", name)
	}
}
