// Package prompt holds the instruction templates sent to every model role.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

const (
	Describe     = "describe"
	Identify     = "identify"
	TextIdentify = "text_identify"
	Verify       = "verify"
	Advise       = "advise"
)

// System is the system message used for text-only producers.
const System = "You are an agricultural expert."

const defaultDescribe = `You are a highly experienced agricultural expert and botanist. Carefully observe the uploaded image of a crop leaf or plant.
Provide a detailed textual description suitable for another AI model to understand the plant and predict its crop type and disease.
Include leaf shape, color, spots, lesions, abnormalities, stem and flower details, and any visible symptoms.
Avoid guessing the crop or disease; focus on direct observation, ignore watermarks or any text at corners.`

const defaultIdentify = `You are an agricultural expert. Identify the crop and disease in this image. Ignore watermarks or any text at corners.

Crops: {{join .Crops}}
Diseases: {{join .Diseases}}

Respond in the format: Crop: <name>, Disease: <name>. I repeat, I do not want any sentences, just answer in the format: Crop: <name>, Disease: <name>.`

const defaultTextIdentify = `Based on this description:
{{.Description}}

Identify the crop (options: {{join .Crops}}).
Identify the disease (options: {{join .Diseases}}).

Respond in the format: Crop: <name>, Disease: <name>. I repeat, I do not want any sentences, just answer in the format: Crop: <name>, Disease: <name>.`

const defaultVerify = `You are a highly reliable agricultural expert. Carefully analyze the uploaded image to identify the crop and disease.

Other AI models provided these conflicting predictions:
{{range .Opinions}}- {{.}}
{{else}}None
{{end}}
Use the image as the main source of truth. The conflicting opinions are hints only.
If none of the predictions fit what you see in the image, override them with your own judgment.

Crops: {{join .Crops}}
Diseases: {{join .Diseases}}

Respond in the format: Crop: <name>, Disease: <name>.`

const defaultAdvise = `You are an agricultural extension officer. The plant in this image has been diagnosed as:
Crop: {{.Crop}}, Disease: {{.Disease}}

List the most likely causes of this condition and practical recommendations for the farmer.
Respond with one JSON object only, no markdown:
{"crop": {{json .Crop}}, "disease": {{json .Disease}}, "causes": ["<cause>"], "recommendations": ["<recommendation>"]}`

var defaults = map[string]string{
	Describe:     defaultDescribe,
	Identify:     defaultIdentify,
	TextIdentify: defaultTextIdentify,
	Verify:       defaultVerify,
	Advise:       defaultAdvise,
}

// Default returns the built-in template text for a role.
func Default(name string) string {
	return defaults[name]
}

// Vocabulary is the closed set of labels every producer must choose from.
type Vocabulary struct {
	Crops    []string
	Diseases []string
}

// Data is the union of fields referenced by the templates.
type Data struct {
	Vocabulary
	Description string
	Opinions    []string
	Crop        string
	Disease     string
}

type Template struct {
	name string
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"join": func(items []string) string { return strings.Join(items, ", ") },
	"json": func(s string) (string, error) {
		b, err := json.Marshal(s)
		return string(b), err
	},
}

// New parses a template. An empty text selects the built-in default.
func New(name, text string) (*Template, error) {
	if strings.TrimSpace(text) == "" {
		text = Default(name)
	}
	if text == "" {
		return nil, fmt.Errorf("no template for %q", name)
	}
	t, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s prompt: %w", name, err)
	}
	return &Template{name: name, tmpl: t}, nil
}

// MustDefault parses a built-in template and panics on error.
func MustDefault(name string) *Template {
	t, err := New(name, "")
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) Render(data Data) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", t.name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
