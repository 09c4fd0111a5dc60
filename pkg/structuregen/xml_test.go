package structuregen

import "testing"

const sampleDoc = `<wiki_structure>
  <title>Demo Wiki</title>
  <description>An example repository.</description>
  <sections>
    <section id="sec-1">
      <title>Overview</title>
      <pages><page_ref>page-1</page_ref></pages>
      <subsections></subsections>
    </section>
  </sections>
  <pages>
    <page id="page-1">
      <title>Getting Started</title>
      <description>How to get started.</description>
      <importance>high</importance>
      <relevant_files><file>README.md</file></relevant_files>
      <related_pages></related_pages>
    </page>
  </pages>
</wiki_structure>`

func TestParseXML_ValidDocument(t *testing.T) {
	doc, err := ParseXML(sampleDoc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	structure := doc.toStructure()

	if structure.Title != "Demo Wiki" {
		t.Errorf("expected title Demo Wiki, got %q", structure.Title)
	}
	if len(structure.Pages) != 1 || structure.Pages[0].ID != "page-1" {
		t.Fatalf("expected 1 page with id page-1, got %+v", structure.Pages)
	}
	if structure.Pages[0].Importance != "high" {
		t.Errorf("expected importance high, got %q", structure.Pages[0].Importance)
	}
	if len(structure.Sections) != 1 || structure.Sections[0].ID != "sec-1" {
		t.Fatalf("expected 1 section sec-1, got %+v", structure.Sections)
	}
}

func TestParseXML_MalformedDocumentErrors(t *testing.T) {
	_, err := ParseXML("<wiki_structure><title>unterminated")
	if err == nil {
		t.Fatal("expected parse error for malformed XML")
	}
}
