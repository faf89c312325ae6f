package remedy

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"
)

const remedyTemplate = `You are an expert agricultural consultant specializing in plant diseases.

A plant disease has been detected with the following information:
- Disease Name: {{.disease_name}}
- Confidence Level: {{.confidence}}%

Please provide a comprehensive response in MARKDOWN format with the following sections:

## 📖 Disease Overview
Brief description of this plant disease (2-3 sentences)

## 🔍 Symptoms
Key symptoms to look for (use bullet points with - )

## 🦠 Causes
What causes this disease (use bullet points with - )

## 💊 Treatment Recommendations

### ⚡ Immediate Actions
- List immediate steps to take

### 🌱 Organic/Natural Remedies
- List organic and natural treatment options

### 🧪 Chemical Treatments (if necessary)
- List chemical treatment options

### 🛡️ Preventive Measures
- List preventive measures to avoid future infections

## ⏱️ Recovery Timeline
Expected recovery timeline and what to expect

## 💡 Additional Tips
Any other helpful advice for managing this disease

IMPORTANT: Use proper Markdown formatting:
- Use ## for main sections
- Use ### for subsections
- Use **bold** for emphasis
- Use bullet points with - for lists
- Keep it well-structured and easy to read
`

var remedyPrompt = prompts.NewPromptTemplate(remedyTemplate, []string{"disease_name", "confidence"})

// Prompt fills the consultant template for one detection. The disease name is
// substituted verbatim; confidence is a percentage printed with two decimals.
func Prompt(req Request) (string, error) {
	text, err := remedyPrompt.Format(map[string]any{
		"disease_name": req.DiseaseName,
		"confidence":   fmt.Sprintf("%.2f", req.Confidence),
	})
	if err != nil {
		return "", fmt.Errorf("format remedy prompt: %w", err)
	}
	return text, nil
}
