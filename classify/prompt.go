package classify

import (
	"fmt"
	"strings"
)

// Prompt returns the instruction sent with each figure.
func Prompt() string {
	var categories strings.Builder
	for _, l := range labels {
		fmt.Fprintf(&categories, "- %s: %s\n", l.Key, l.Description)
	}

	return fmt.Sprintf(`Analyze this figure/image and classify it into one of the following categories. Be very precise and accurate.

AVAILABLE CATEGORIES:
%s
CLASSIFICATION REQUIREMENTS:
1. Look carefully at the visual elements, structure, and content
2. Consider the purpose and typical use of the figure
3. For charts/graphs, identify the specific type (bar, pie, line, scatter, etc.)
4. For diagrams, determine the specific domain (scientific, medical, engineering, etc.)
5. For images, distinguish between photographs, screenshots, logos, etc.

SPECIAL CONSIDERATIONS:
- Tables: Look for structured data in rows and columns
- Charts: Identify data visualization patterns (bars, lines, circles, points)
- Diagrams: Look for flowcharts, organizational structures, technical drawings
- Scientific: Look for formulas, molecular structures, anatomical drawings
- Maps: Geographic features, roads, boundaries, topographical elements

OUTPUT FORMAT (JSON):
{
    "type": "category_key_from_list_above",
    "confidence": 0.95,
    "description": "Brief description of what you see",
    "details": {
        "visual_elements": ["list", "of", "key", "elements"],
        "data_type": "type of data shown if applicable",
        "domain": "subject domain if applicable"
    },
    "reasoning": "Why you chose this classification"
}

Be extremely accurate. If you're not sure between two categories, pick the most specific one that fits best.
`, categories.String())
}
