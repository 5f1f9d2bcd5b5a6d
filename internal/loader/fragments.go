package loader

import (
	"gopkg.in/yaml.v3"

	"github.com/morozRed/capibara/internal/model"
)

// boundaryFile is the header marker. os_affinity is accepted for
// compatibility with older trees but a header's affinity is always derived
// from its entities.
type boundaryFile struct {
	Summary    string   `yaml:"summary"`
	OSAffinity []string `yaml:"os_affinity"`
}

type macroFile struct {
	Summary     string    `yaml:"summary"`
	Kind        yaml.Node `yaml:"kind"`
	Description string    `yaml:"description"`
	OSAffinity  []string  `yaml:"os_affinity"`
}

type enumFile struct {
	Summary     string          `yaml:"summary"`
	Variants    []model.Variant `yaml:"variants"`
	Description string          `yaml:"description"`
	OSAffinity  []string        `yaml:"os_affinity"`
}

type structFile struct {
	Summary     string        `yaml:"summary"`
	Fields      []model.Field `yaml:"fields"`
	Description string        `yaml:"description"`
	OSAffinity  []string      `yaml:"os_affinity"`
}

type typedefFile struct {
	Summary       string   `yaml:"summary"`
	Type          string   `yaml:"type"`
	AssociatedRef string   `yaml:"associated_ref"`
	Description   string   `yaml:"description"`
	OSAffinity    []string `yaml:"os_affinity"`
}

type functionFile struct {
	Summary     string            `yaml:"summary"`
	Returns     model.Return      `yaml:"returns"`
	Parameters  []model.Parameter `yaml:"parameters"`
	Description string            `yaml:"description"`
	Associated  []string          `yaml:"associated"`
	OSAffinity  []string          `yaml:"os_affinity"`
}

func parseBoundary(data []byte) (boundaryFile, error) {
	var f boundaryFile
	if err := decodeStrict(data, &f, "summary"); err != nil {
		return boundaryFile{}, err
	}
	return f, nil
}

func parseMacro(data []byte, name string, header model.HeaderSummary) (model.Macro, []string, error) {
	var f macroFile
	if err := decodeStrict(data, &f, "summary", "kind", "description", "os_affinity"); err != nil {
		return model.Macro{}, nil, err
	}
	kind, err := decodeMacroKind(&f.Kind)
	if err != nil {
		return model.Macro{}, nil, err
	}
	tags := model.NonNil(f.OSAffinity)
	return model.Macro{
		Name:        name,
		Header:      header,
		Summary:     f.Summary,
		Kind:        kind,
		Description: f.Description,
		OSAffinity:  tags,
	}, tags, nil
}

func parseEnum(data []byte, name string, header model.HeaderSummary) (model.Enumeration, []string, error) {
	var f enumFile
	if err := decodeStrict(data, &f, "summary", "variants", "description", "os_affinity"); err != nil {
		return model.Enumeration{}, nil, err
	}
	tags := model.NonNil(f.OSAffinity)
	return model.Enumeration{
		Name:        name,
		Header:      header,
		Summary:     f.Summary,
		Variants:    model.NonNil(f.Variants),
		Description: f.Description,
		OSAffinity:  tags,
	}, tags, nil
}

func parseStruct(data []byte, name string, header model.HeaderSummary) (model.Structure, []string, error) {
	var f structFile
	if err := decodeStrict(data, &f, "summary", "fields", "description", "os_affinity"); err != nil {
		return model.Structure{}, nil, err
	}
	tags := model.NonNil(f.OSAffinity)
	return model.Structure{
		Name:        name,
		Header:      header,
		Summary:     f.Summary,
		Fields:      model.NonNil(f.Fields),
		Description: f.Description,
		OSAffinity:  tags,
	}, tags, nil
}

// parseTypedef leaves the reference unresolved; the loader resolves
// f.AssociatedRef once the alias itself parsed.
func parseTypedef(data []byte) (typedefFile, error) {
	var f typedefFile
	if err := decodeStrict(data, &f, "summary", "type", "associated_ref", "description", "os_affinity"); err != nil {
		return typedefFile{}, err
	}
	f.OSAffinity = model.NonNil(f.OSAffinity)
	return f, nil
}

func parseFunction(data []byte, name string, header model.HeaderSummary) (model.Function, []string, error) {
	var f functionFile
	if err := decodeStrict(data, &f, "summary", "returns", "parameters", "description", "associated", "os_affinity"); err != nil {
		return model.Function{}, nil, err
	}
	tags := model.NonNil(f.OSAffinity)
	return model.Function{
		Name:        name,
		Header:      header,
		Summary:     f.Summary,
		Returns:     f.Returns,
		Parameters:  model.NonNil(f.Parameters),
		Description: f.Description,
		Associated:  model.NonNil(f.Associated),
		OSAffinity:  tags,
	}, tags, nil
}
