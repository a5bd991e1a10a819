package services

import (
	"embed"
	"strings"
	"text/template"

	contextutils "wastereport/internal/utils"
)

//go:embed templates/*.tmpl
var aiTemplatesFS embed.FS

//go:embed templates/schemas/*.json
var aiSchemasFS embed.FS

// Template names as constants
const (
	ClassifyWastePromptTemplate      = "classify_waste.tmpl"
	ClassifyDeadAnimalPromptTemplate = "classify_dead_animal.tmpl"
	VerifyCleanupPromptTemplate      = "verify_cleanup.tmpl"
	AssistantPersonaTemplate         = "assistant_persona.tmpl"
)

// Response schema names
const (
	WasteClassificationSchema      = "waste_classification"
	DeadAnimalClassificationSchema = "dead_animal_classification"
	CleanupVerificationSchema      = "cleanup_verification"
)

// AITemplateData holds data for rendering AI prompt templates
type AITemplateData struct {
	AssistantName string
	City          string
}

// DefaultAITemplateData is the persona the assistant speaks as
var DefaultAITemplateData = AITemplateData{
	AssistantName: "Clean Madurai AI Assistant",
	City:          "Madurai",
}

// AITemplateManager manages AI prompt templates and response schemas
type AITemplateManager struct {
	templates *template.Template
}

// NewAITemplateManager creates a new template manager
func NewAITemplateManager() (result0 *AITemplateManager, err error) {
	templates, err := template.New("").ParseFS(aiTemplatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	return &AITemplateManager{
		templates: templates,
	}, nil
}

// RenderTemplate renders a template with the given data
func (tm *AITemplateManager) RenderTemplate(templateName string, data AITemplateData) (result0 string, err error) {
	var buf strings.Builder
	if err = tm.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		return "", contextutils.WrapErrorf(err, "failed to render template %s", templateName)
	}
	return strings.TrimSpace(buf.String()), nil
}

// LoadSchema returns the JSON schema a response must satisfy
func (tm *AITemplateManager) LoadSchema(name string) (result0 string, err error) {
	content, err := aiSchemasFS.ReadFile("templates/schemas/" + name + ".json")
	if err != nil {
		return "", contextutils.WrapErrorf(err, "failed to load schema %s", name)
	}
	return string(content), nil
}
