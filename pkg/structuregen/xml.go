package structuregen

import "encoding/xml"

// XML schema (spec §4.G):
//
//	<wiki_structure>
//	  <title>...</title>
//	  <description>...</description>
//	  <sections>                      (comprehensive mode only)
//	    <section id="sec-1">
//	      <title>...</title>
//	      <pages><page_ref>page-1</page_ref></pages>
//	      <subsections><section_ref>sec-2</section_ref></subsections>
//	    </section>
//	  </sections>
//	  <pages>
//	    <page id="page-1">
//	      <title>...</title>
//	      <description>...</description>
//	      <importance>high</importance>
//	      <relevant_files><file>path/to/file.go</file></relevant_files>
//	      <related_pages><page_ref>page-2</page_ref></related_pages>
//	    </page>
//	  </pages>
//	</wiki_structure>

type xmlDocument struct {
	XMLName     xml.Name      `xml:"wiki_structure"`
	Title       string        `xml:"title"`
	Description string        `xml:"description"`
	Sections    *xmlSections  `xml:"sections"`
	Pages       xmlPageList   `xml:"pages"`
}

type xmlSections struct {
	Sections []xmlSection `xml:"section"`
}

type xmlSection struct {
	ID          string       `xml:"id,attr"`
	Title       string       `xml:"title"`
	Pages       xmlRefList   `xml:"pages"`
	Subsections xmlRefList   `xml:"subsections"`
}

type xmlRefList struct {
	PageRefs    []string `xml:"page_ref"`
	SectionRefs []string `xml:"section_ref"`
}

type xmlPageList struct {
	Pages []xmlPage `xml:"page"`
}

type xmlPage struct {
	ID            string     `xml:"id,attr"`
	Title         string     `xml:"title"`
	Description   string     `xml:"description"`
	Importance    string     `xml:"importance"`
	RelevantFiles xmlFiles   `xml:"relevant_files"`
	RelatedPages  xmlRefList `xml:"related_pages"`
	ParentSection string     `xml:"parent_section"`
}

type xmlFiles struct {
	Files []string `xml:"file"`
}

// ParseXML parses a sanitized document body into the xmlDocument
// intermediate representation.
func ParseXML(body string) (*xmlDocument, error) {
	var doc xmlDocument
	if err := xml.Unmarshal([]byte(body), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// toStructure converts the parsed XML document into the canonical
// Structure object.
func (doc *xmlDocument) toStructure() *Structure {
	s := &Structure{Title: doc.Title, Description: doc.Description}

	for _, p := range doc.Pages.Pages {
		s.Pages = append(s.Pages, Page{
			ID:            p.ID,
			Title:         p.Title,
			Description:   p.Description,
			Importance:    p.Importance,
			RelevantFiles: p.RelevantFiles.Files,
			RelatedPages:  p.RelatedPages.PageRefs,
			ParentSection: p.ParentSection,
		})
	}

	if doc.Sections != nil {
		for _, sec := range doc.Sections.Sections {
			s.Sections = append(s.Sections, Section{
				ID:            sec.ID,
				Title:         sec.Title,
				PageIDs:       sec.Pages.PageRefs,
				SubsectionIDs: sec.Subsections.SectionRefs,
			})
		}
	}

	return s
}
