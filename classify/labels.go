package classify

// Unknown is the label used when a figure cannot be classified.
const Unknown = "unknown"

// Label is one figure category.
type Label struct {
	Key         string
	Description string
}

// labels is the closed set of categories, in presentation order.
var labels = []Label{
	{"bar_chart", "Bar Chart - Shows data using rectangular bars"},
	{"pie_chart", "Pie Chart - Circular chart showing proportions"},
	{"line_graph", "Line Graph - Shows trends over time or continuous data"},
	{"scatter_plot", "Scatter Plot - Shows relationship between two variables"},
	{"histogram", "Histogram - Shows distribution of data"},
	{"box_plot", "Box Plot - Shows statistical distribution"},
	{"heatmap", "Heatmap - Shows data intensity with colors"},
	{"flowchart", "Flowchart - Shows process or workflow"},
	{"organizational_chart", "Organizational Chart - Shows hierarchy"},
	{"network_diagram", "Network Diagram - Shows connections between entities"},
	{"scientific_diagram", "Scientific Diagram - Technical/scientific illustration"},
	{"medical_diagram", "Medical Diagram - Anatomical or medical illustration"},
	{"engineering_diagram", "Engineering Diagram - Technical drawing or schematic"},
	{"map", "Map - Geographic or spatial representation"},
	{"floor_plan", "Floor Plan - Architectural layout"},
	{"timeline", "Timeline - Shows events over time"},
	{"table", "Table - Structured data in rows and columns"},
	{"infographic", "Infographic - Visual information presentation"},
	{"photograph", "Photograph - Real-world image"},
	{"screenshot", "Screenshot - Computer screen capture"},
	{"logo", "Logo - Brand or company symbol"},
	{"chart_other", "Other Chart Type - Specialized chart not in main categories"},
	{"diagram_other", "Other Diagram - General diagram or illustration"},
	{Unknown, "Unknown - Cannot determine figure type"},
}

var byKey = func() map[string]Label {
	m := make(map[string]Label, len(labels))
	for _, l := range labels {
		m[l.Key] = l
	}
	return m
}()

// Labels returns every supported category.
func Labels() []Label {
	return append([]Label(nil), labels...)
}

// IsKnown reports whether key is a supported category.
func IsKnown(key string) bool {
	_, ok := byKey[key]
	return ok
}

// Describe returns the description of key, or that of Unknown.
func Describe(key string) string {
	if l, ok := byKey[key]; ok {
		return l.Description
	}
	return byKey[Unknown].Description
}
