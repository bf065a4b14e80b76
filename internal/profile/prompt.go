package profile

import (
	"fmt"
	"strings"

	"github.com/kalambet/profilechat/internal/completion"
)

const mergePromptTemplate = `Analyze this conversation and update the user profile.
Existing profile to maintain and extend:
%s

Guidelines:
- STRICTLY maintain all items from the existing profile
- Only add new information if it has high confidence
- Use existing category labels when possible
- Create new category labels only for distinctly new information
`

const createPrompt = `Analyze the conversation and extract key information in these categories:

1. Personal Information (Highest Priority):
   - Name and preferred names/nicknames
   - Time zone or location mentions
   - Role or occupation
   - Native language/preferred languages
   - Important dates or events mentioned
   - Family or close relationships (if mentioned)
   - Health or well-being mentions (if relevant)
   - Any other personal identifiers (e.g., age, social accounts)

2. User's Interests and Preferences (High Priority):
   - Personal interests, hobbies, likes/dislikes
   - Professional interests
   - Learning goals and aspirations
   - Preferred tools and technologies

3. Communication Style (High Priority):
   - Writing style (formal/casual)
   - Preferred response length
   - Language patterns
   - Question-asking patterns

4. Common Topics Discussed (Medium Priority):
   - Frequently discussed subjects
   - Recurring questions or concerns
   - Project themes
   - Areas of focus

5. Technical Skill Level (Medium Priority):
   - Programming languages known
   - Tools and frameworks used
   - Experience level indicators
   - Learning patterns

Guidelines:
- Create meaningful category labels that reflect content importance
- Category labels should be snake_case and descriptive
- Keep maximum 10 items per category
- Only include clearly stated information
- Assign confidence levels based on clarity and repetition
`

const returnFormat = `
Return format (a single JSON object with exactly these five keys and nothing else):
{
    "personal_info": [{"item": "...", "category": "...", "confidence": "high/medium/low"}],
    "interests_preferences": [{"item": "...", "category": "...", "confidence": "high/medium/low"}],
    "communication_style": [{"item": "...", "category": "...", "confidence": "high/medium/low"}],
    "common_topics": [{"item": "...", "category": "...", "confidence": "high/medium/low"}],
    "technical_skills": [{"item": "...", "category": "...", "confidence": "high/medium/low"}]
}`

// BuildPrompt returns the completion messages for extracting a profile from
// conversation. A non-nil existing profile selects merge mode.
func BuildPrompt(conversation string, existing *Profile) []completion.Message {
	var sb strings.Builder
	if existing != nil {
		fmt.Fprintf(&sb, mergePromptTemplate, existing.Indented())
	} else {
		sb.WriteString(createPrompt)
	}
	sb.WriteString(returnFormat)

	return []completion.Message{
		{Role: completion.RoleSystem, Content: sb.String()},
		{Role: completion.RoleUser, Content: conversation},
	}
}
