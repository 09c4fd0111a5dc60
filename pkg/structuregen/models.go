// Package structuregen implements the Wiki Structure Generator (spec
// §4.G): a provider-agnostic prompt builder plus an XML
// validation/self-correction loop that turns a streamed LLM response into
// a canonical Structure object.
package structuregen

// Page is one page entry inside a generated Structure.
type Page struct {
	ID            string
	Title         string
	Description   string
	Importance    string
	RelevantFiles []string
	RelatedPages  []string
	ParentSection string
}

// Section groups pages (and, in comprehensive mode, nested sections)
// under a named heading.
type Section struct {
	ID            string
	Title         string
	PageIDs       []string
	SubsectionIDs []string
}

// Structure is the canonical, validated structure object (spec §4.G's
// "Output"): title, description, ordered pages, and sections with
// RootSections computed as sections never referenced as anyone else's
// subsection.
type Structure struct {
	Title       string
	Description string
	Pages       []Page
	Sections    []Section
}

// RootSections returns the sections not referenced as a subsection of any
// other section, preserving declaration order.
func (s *Structure) RootSections() []Section {
	referenced := map[string]bool{}
	for _, sec := range s.Sections {
		for _, sub := range sec.SubsectionIDs {
			referenced[sub] = true
		}
	}

	var roots []Section
	for _, sec := range s.Sections {
		if !referenced[sec.ID] {
			roots = append(roots, sec)
		}
	}
	return roots
}
