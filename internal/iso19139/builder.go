// Package iso19139 renders a metadata bundle into an ISO 19139 XML
// document. Build is a pure function: the same bundle and options
// always produce the same tree. Schema regions are appended by a fixed
// sequence of sub-builders, each touching exactly one region.
package iso19139

import (
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/cranfield-landis/metaexport/internal/bundle"
	"github.com/cranfield-landis/metaexport/internal/store"
)

// Namespace URIs declared on the document root. The prefixes are fixed
// by the target schema profile.
var namespaces = map[string]string{
	"gmd": "http://www.isotc211.org/2005/gmd",
	"gco": "http://www.isotc211.org/2005/gco",
	"gml": "http://www.opengis.net/gml",
	"gts": "http://www.isotc211.org/2005/gts",
	"xsi": "http://www.w3.org/2001/XMLSchema-instance",
	"srv": "http://www.isotc211.org/2005/srv",
}

// Fixed declaration order keeps serialisation deterministic.
var namespaceOrder = []string{"gmd", "gco", "gml", "gts", "xsi", "srv"}

const (
	codeListGmx      = "http://standards.iso.org/ittf/PubliclyAvailableStandards/ISO_19139_Schemas/resources/Codelist/ML_gmxCodelists.xml"
	codeListISO      = "http://www.isotc211.org/2005/resources/codeList.xml"
	defaultAccuracy  = "No attribute accuracy report supplied."
	referenceSystem  = "British National Grid"
	dateLayout       = "2006-01-02"
	unknownDataForm  = "Unknown"
)

// Options carries the presentation defaults a caller may override.
// A zero DateStamp means the current date at build time; the three
// contact fields populate the document-level responsible-party block,
// which is emitted even when all of them are empty.
type Options struct {
	LanguageCode        string
	CharacterSet        string
	HierarchyLevel      string
	DateStamp           time.Time
	ContactName         string
	ContactOrganisation string
	ContactEmail        string
}

func (o Options) withDefaults() Options {
	if o.LanguageCode == "" {
		o.LanguageCode = "eng"
	}
	if o.CharacterSet == "" {
		o.CharacterSet = "utf8"
	}
	if o.HierarchyLevel == "" {
		o.HierarchyLevel = "dataset"
	}
	if o.DateStamp.IsZero() {
		o.DateStamp = time.Now()
	}
	return o
}

// Build constructs the metadata document for a bundle. It never fails:
// unresolved optional fields are omitted from the output.
func Build(b *bundle.Bundle, opts Options) *etree.Document {
	opts = opts.withDefaults()

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("gmd:MD_Metadata")
	for _, prefix := range namespaceOrder {
		root.CreateAttr("xmlns:"+prefix, namespaces[prefix])
	}

	buildFileIdentifier(root, b)
	buildLanguage(root, opts.LanguageCode)
	buildCharacterSet(root, opts.CharacterSet)
	buildHierarchyLevel(root, opts.HierarchyLevel)
	buildContact(root, opts)
	buildDateStamp(root, opts.DateStamp)
	buildReferenceSystem(root)
	buildIdentificationInfo(root, b)
	buildDistribution(root, b)
	buildDataQuality(root, b)
	buildExtensionInfo(root, b)

	return doc
}

// characterString appends the gco:CharacterString container required
// for every free-text leaf. The container is created even for blank
// values — title and abstract rely on that.
func characterString(parent *etree.Element, text string) {
	parent.CreateElement("gco:CharacterString").SetText(text)
}

// optionalElement appends tag wrapping a character string only when
// text is non-empty. Contrast with characterString, which always
// creates the container.
func optionalElement(parent *etree.Element, tag, text string) {
	if text == "" {
		return
	}
	characterString(parent.CreateElement(tag), text)
}

// codeListElement appends a controlled-vocabulary code element carrying
// codeList/codeListValue attributes. Callers set text where the schema
// expects the value mirrored.
func codeListElement(parent *etree.Element, tag, list, value string) *etree.Element {
	e := parent.CreateElement(tag)
	e.CreateAttr("codeList", list)
	e.CreateAttr("codeListValue", value)
	return e
}

// formatDate normalises a date-like column value: native times render
// as the calendar date (time-of-day dropped), anything else is
// stringified and trimmed, and a blank result means no output at all.
// Applied identically at every date-bearing location.
func formatDate(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format(dateLayout)
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func buildFileIdentifier(root *etree.Element, b *bundle.Bundle) {
	characterString(root.CreateElement("gmd:fileIdentifier"), b.Identifier)
}

func buildLanguage(root *etree.Element, code string) {
	e := codeListElement(root.CreateElement("gmd:language"), "gmd:LanguageCode", codeListGmx+"#LanguageCode", code)
	e.SetText(code)
}

func buildCharacterSet(root *etree.Element, charset string) {
	codeListElement(root.CreateElement("gmd:characterSet"), "gmd:MD_CharacterSetCode", codeListISO+"#MD_CharacterSetCode", charset)
}

func buildHierarchyLevel(root *etree.Element, level string) {
	e := codeListElement(root.CreateElement("gmd:hierarchyLevel"), "gmd:MD_ScopeCode", codeListGmx+"#MD_ScopeCode", level)
	e.SetText(level)
}

// buildContact emits the responsible-party block. The block itself is
// unconditional; name, organisation and email appear only when set.
func buildContact(root *etree.Element, opts Options) {
	party := root.CreateElement("gmd:contact").CreateElement("gmd:CI_ResponsibleParty")

	optionalElement(party, "gmd:individualName", opts.ContactName)
	optionalElement(party, "gmd:organisationName", opts.ContactOrganisation)

	if opts.ContactEmail != "" {
		address := party.CreateElement("gmd:contactInfo").
			CreateElement("gmd:CI_Contact").
			CreateElement("gmd:address").
			CreateElement("gmd:CI_Address")
		characterString(address.CreateElement("gmd:electronicMailAddress"), opts.ContactEmail)
	}

	role := codeListElement(party.CreateElement("gmd:role"), "gmd:CI_RoleCode", codeListISO+"#CI_RoleCode", "pointOfContact")
	role.SetText("pointOfContact")
}

func buildDateStamp(root *etree.Element, stamp time.Time) {
	root.CreateElement("gmd:dateStamp").CreateElement("gco:Date").SetText(stamp.Format(dateLayout))
}

// buildReferenceSystem emits the fixed reference-system identifier.
// The value is constant for this profile, not derived from data.
func buildReferenceSystem(root *etree.Element) {
	code := root.CreateElement("gmd:referenceSystemInfo").
		CreateElement("gmd:MD_ReferenceSystem").
		CreateElement("gmd:referenceSystemIdentifier").
		CreateElement("gmd:RS_Identifier").
		CreateElement("gmd:code")
	characterString(code, referenceSystem)
}

func buildIdentificationInfo(root *etree.Element, b *bundle.Bundle) {
	ident := root.CreateElement("gmd:identificationInfo").CreateElement("gmd:MD_DataIdentification")

	ciCitation := ident.CreateElement("gmd:citation").CreateElement("gmd:CI_Citation")
	characterString(ciCitation.CreateElement("gmd:title"), b.Main.Text("title"))

	if b.Citation != nil {
		optionalElement(ciCitation, "gmd:alternateTitle", b.Citation.Text("citation_title"))
		ciDate := ciCitation.CreateElement("gmd:date").CreateElement("gmd:CI_Date")
		if pubDate := formatDate(b.Citation.Value("citation_pubdate")); pubDate != "" {
			characterString(ciDate.CreateElement("gmd:date"), pubDate)
		}
		dateType := codeListElement(ciDate.CreateElement("gmd:dateType"), "gmd:CI_DateTypeCode", codeListISO+"#CI_DateTypeCode", "publication")
		dateType.SetText("publication")
	}

	characterString(ident.CreateElement("gmd:abstract"), b.Main.Text("abstract"))

	// Purpose prefers the group's purpose; the main record's
	// supplemental information is the fallback. Never both.
	if b.Group != nil && b.Group.Text("purpose") != "" {
		characterString(ident.CreateElement("gmd:purpose"), b.Group.Text("purpose"))
	} else if b.Main.Text("supplemental_information") != "" {
		characterString(ident.CreateElement("gmd:purpose"), b.Main.Text("supplemental_information"))
	}

	if status := b.Main.Text("status_progress"); status != "" {
		progress := codeListElement(ident.CreateElement("gmd:status"), "gmd:MD_ProgressCode", codeListISO+"#MD_ProgressCode", status)
		progress.SetText(status)
	}

	buildKeywords(ident, b.Keywords)
	buildConstraints(ident, b.Group)
	buildSpatialRepresentation(ident, b.Main)
	buildExtent(ident, b.Main)
}

// buildKeywords emits one descriptive-keywords block per distinct
// keyword type, in first-seen order. An empty-string type is a
// legitimate group whose type classification is simply omitted.
func buildKeywords(ident *etree.Element, keywords []store.Row) {
	var order []string
	grouped := map[string][]store.Row{}
	for _, kw := range keywords {
		kt := strings.TrimSpace(kw.Text("keyword_type"))
		if _, ok := grouped[kt]; !ok {
			order = append(order, kt)
		}
		grouped[kt] = append(grouped[kt], kw)
	}

	for _, kt := range order {
		mdKeywords := ident.CreateElement("gmd:descriptiveKeywords").CreateElement("gmd:MD_Keywords")
		for _, kw := range grouped[kt] {
			characterString(mdKeywords.CreateElement("gmd:keyword"), kw.Text("keyword"))
		}
		if kt != "" {
			typeCode := codeListElement(mdKeywords.CreateElement("gmd:type"), "gmd:MD_KeywordTypeCode", codeListISO+"#MD_KeywordTypeCode", kt)
			typeCode.SetText(kt)
		}
	}
}

// buildConstraints emits the use-constraint and access-constraint
// blocks. They have different sub-element shapes and may coexist.
func buildConstraints(ident *etree.Element, group store.Row) {
	if group == nil {
		return
	}

	if use := group.Text("use_constraint"); use != "" {
		limitation := ident.CreateElement("gmd:resourceConstraints").
			CreateElement("gmd:MD_Constraints").
			CreateElement("gmd:useLimitation")
		characterString(limitation, use)
	}

	if access := group.Text("access_constraint"); access != "" {
		constraints := ident.CreateElement("gmd:resourceConstraints").
			CreateElement("gmd:MD_LegalConstraints").
			CreateElement("gmd:accessConstraints")
		restriction := codeListElement(constraints, "gmd:MD_RestrictionCode", codeListGmx+"#MD_RestrictionCode", access)
		restriction.SetText(access)
	}
}

func buildSpatialRepresentation(ident *etree.Element, main store.Row) {
	spatial := main.Text("metadata_facing")
	if spatial == "" {
		return
	}
	code := codeListElement(ident.CreateElement("gmd:spatialRepresentationType"), "gmd:MD_SpatialRepresentationTypeCode", codeListISO+"#MD_SpatialRepresentationTypeCode", spatial)
	code.SetText(spatial)
}

// buildExtent emits the bounding box when at least one coordinate is
// non-null, each coordinate element independently optional, plus a
// temporal sub-block when at least one normalised bound is present.
func buildExtent(ident *etree.Element, main store.Row) {
	coords := []struct {
		tag    string
		column string
	}{
		{"gmd:westBoundLongitude", "west_bounding_coordinate"},
		{"gmd:eastBoundLongitude", "east_bounding_coordinate"},
		{"gmd:southBoundLatitude", "south_bounding_coordinate"},
		{"gmd:northBoundLatitude", "north_bounding_coordinate"},
	}

	anyCoord := false
	for _, c := range coords {
		if main.Has(c.column) {
			anyCoord = true
			break
		}
	}
	if !anyCoord {
		return
	}

	exExtent := ident.CreateElement("gmd:extent").CreateElement("gmd:EX_Extent")
	bbox := exExtent.CreateElement("gmd:geographicElement").CreateElement("gmd:EX_GeographicBoundingBox")
	for _, c := range coords {
		if !main.Has(c.column) {
			continue
		}
		bbox.CreateElement(c.tag).CreateElement("gco:Decimal").SetText(main.Text(c.column))
	}

	start := formatDate(main.Value("temporal_date_from"))
	end := formatDate(main.Value("temporal_date_to"))
	if start == "" && end == "" {
		return
	}
	period := exExtent.CreateElement("gmd:temporalElement").
		CreateElement("gmd:EX_TemporalExtent").
		CreateElement("gml:TimePeriod")
	if start != "" {
		period.CreateElement("gml:beginPosition").SetText(start)
	}
	if end != "" {
		period.CreateElement("gml:endPosition").SetText(end)
	}
}

// buildDistribution always emits the distribution block. The format
// name falls back to "Unknown" when no citation data form is known.
func buildDistribution(root *etree.Element, b *bundle.Bundle) {
	format := root.CreateElement("gmd:distributionInfo").
		CreateElement("gmd:MD_Distribution").
		CreateElement("gmd:distributionFormat").
		CreateElement("gmd:MD_Format")

	formatName := unknownDataForm
	var citationTitle string
	if b.Citation != nil {
		if form := b.Citation.Text("citation_data_form"); form != "" {
			formatName = form
		}
		citationTitle = b.Citation.Text("citation_title")
	}
	characterString(format.CreateElement("gmd:name"), formatName)
	optionalElement(format, "gmd:version", citationTitle)
}

// buildDataQuality always emits the data quality block: fixed dataset
// scope, a conformance report, and the lineage sources.
func buildDataQuality(root *etree.Element, b *bundle.Bundle) {
	quality := root.CreateElement("gmd:dataQualityInfo").CreateElement("gmd:DQ_DataQuality")

	level := quality.CreateElement("gmd:scope").
		CreateElement("gmd:DQ_Scope").
		CreateElement("gmd:level")
	scopeCode := codeListElement(level, "gmd:MD_ScopeCode", codeListISO+"#MD_ScopeCode", "dataset")
	scopeCode.SetText("dataset")

	conformance := quality.CreateElement("gmd:report").
		CreateElement("gmd:DQ_DomainConsistency").
		CreateElement("gmd:result").
		CreateElement("gmd:DQ_ConformanceResult")
	accuracy := defaultAccuracy
	if b.Group != nil && b.Group.Text("attribute_accuracy_report") != "" {
		accuracy = b.Group.Text("attribute_accuracy_report")
	}
	characterString(conformance.CreateElement("gmd:explanation"), accuracy)
	// The source data carries no pass/fail signal; the flag is
	// asserted true for every record.
	conformance.CreateElement("gmd:pass").CreateElement("gco:Boolean").SetText("true")

	lineage := quality.CreateElement("gmd:lineage").CreateElement("gmd:LI_Lineage")
	for _, src := range b.Sources {
		buildLineageSource(lineage, b, src)
	}
}

// buildLineageSource emits one source block: description from the
// contribution text, a scale block conditioned on source *name*
// presence (the scale value itself may be empty), and one
// sourceCitation per resolvable linked citation. Dangling citation
// references are skipped silently.
func buildLineageSource(lineage *etree.Element, b *bundle.Bundle, src store.Row) {
	liSource := lineage.CreateElement("gmd:source").CreateElement("gmd:LI_Source")

	optionalElement(liSource, "gmd:description", src.Text("source_contribution"))

	if src.Text("source_name") != "" {
		denominator := liSource.CreateElement("gmd:sourceScale").
			CreateElement("gmd:MD_RepresentativeFraction").
			CreateElement("gmd:denominator")
		characterString(denominator, src.Text("source_scale"))
	}

	var linked []string
	if id := store.Key(src.Value("citation_id")); id != "" {
		linked = append(linked, id)
	}
	for _, link := range b.SourceCitations[store.Key(src.Value("source_id"))] {
		if id := store.Key(link.Value("citation_id")); id != "" {
			linked = append(linked, id)
		}
	}

	for _, id := range linked {
		citation, ok := b.CitationLookup[id]
		if !ok {
			continue
		}
		liSource.CreateElement("gmd:sourceCitation").AddChild(buildCICitation(citation))
	}
}

// buildCICitation builds a citation element for lineage references,
// including the online linkage when the citation carries one.
func buildCICitation(citation store.Row) *etree.Element {
	ciCitation := etree.NewElement("gmd:CI_Citation")
	characterString(ciCitation.CreateElement("gmd:title"), citation.Text("citation_title"))

	if pubDate := formatDate(citation.Value("citation_pubdate")); pubDate != "" {
		ciDate := ciCitation.CreateElement("gmd:date").CreateElement("gmd:CI_Date")
		characterString(ciDate.CreateElement("gmd:date"), pubDate)
		dateType := codeListElement(ciDate.CreateElement("gmd:dateType"), "gmd:CI_DateTypeCode", codeListISO+"#CI_DateTypeCode", "publication")
		dateType.SetText("publication")
	}

	if linkage := citation.Text("online_linkage"); linkage != "" {
		ciCitation.CreateElement("gmd:onlineResource").
			CreateElement("gmd:CI_OnlineResource").
			CreateElement("gmd:linkage").
			CreateElement("gmd:URL").SetText(linkage)
	}
	return ciCitation
}

// buildExtensionInfo emits one extended-element entry per attribute
// record; the whole block is omitted when there are no attributes.
func buildExtensionInfo(root *etree.Element, b *bundle.Bundle) {
	if len(b.Attributes) == 0 {
		return
	}

	extension := root.CreateElement("gmd:metadataExtensionInfo").CreateElement("gmd:MD_MetadataExtensionInformation")
	for _, attr := range b.Attributes {
		entry := extension.CreateElement("gmd:extendedElementInformation")
		optionalElement(entry, "gmd:name", attr.Text("attribute_name"))
		optionalElement(entry, "gmd:shortName", attr.Text("attribute_alias"))
		optionalElement(entry, "gmd:definition", attr.Text("attribute_definition"))
		optionalElement(entry, "gmd:condition", attr.Text("codeset_name"))
		if dataType := attr.Text("attribute_type"); dataType != "" {
			characterString(entry.CreateElement("gmd:dataType"), dataType)
		}
		optionalElement(entry, "gmd:description", attributeDetail(attr))
	}
}

// attributeDetail synthesises the human-readable storage description
// from whichever of width, precision, and scale are present, joined in
// that order with "; ". Empty when none of the three are set.
func attributeDetail(attr store.Row) string {
	var parts []string
	if attr.Has("attribute_width") {
		parts = append(parts, fmt.Sprintf("width=%v", attr.Value("attribute_width")))
	}
	if attr.Has("attribute_precision") {
		parts = append(parts, fmt.Sprintf("precision=%v", attr.Value("attribute_precision")))
	}
	if attr.Has("attribute_scale") {
		parts = append(parts, fmt.Sprintf("scale=%v", attr.Value("attribute_scale")))
	}
	return strings.Join(parts, "; ")
}
