package export

import (
	"bytes"
	"fmt"

	"github.com/felixgeelhaar/escapekit/internal/domain"
	"gopkg.in/yaml.v3"
)

// RenderPlanYAML renders the plan as a structured YAML document
func RenderPlanYAML(plan *domain.Plan) ([]byte, error) {
	if plan == nil {
		return nil, domain.ErrPlanNotReady
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(plan); err != nil {
		return nil, &domain.ClientSideError{Op: "yaml", Err: fmt.Errorf("encode plan: %w", err)}
	}
	if err := enc.Close(); err != nil {
		return nil, &domain.ClientSideError{Op: "yaml", Err: err}
	}
	return buf.Bytes(), nil
}

// YAMLArtifact wraps the YAML export of a plan
func YAMLArtifact(plan *domain.Plan) (Artifact, error) {
	data, err := RenderPlanYAML(plan)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Name: Filename(plan.Title, ".yaml"), ContentType: ContentTypeYAML, Body: data}, nil
}
