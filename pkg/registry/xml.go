package registry

import "encoding/xml"

// Raw vk.xml shapes. Only the attributes the generator reads are mapped.

type xmlRegistry struct {
	XMLName    xml.Name       `xml:"registry"`
	Types      []xmlType      `xml:"types>type"`
	Features   []xmlFeature   `xml:"feature"`
	Extensions []xmlExtension `xml:"extensions>extension"`
}

type xmlType struct {
	Category      string      `xml:"category,attr"`
	Name          string      `xml:"name,attr"`
	Alias         string      `xml:"alias,attr"`
	StructExtends string      `xml:"structextends,attr"`
	Members       []xmlMember `xml:"member"`
}

type xmlMember struct {
	Values string `xml:"values,attr"`
	Type   string `xml:"type"`
	Name   string `xml:"name"`
}

type xmlFeature struct {
	API     string `xml:"api,attr"`
	APIType string `xml:"apitype,attr"`
	Name    string `xml:"name,attr"`
	Number  string `xml:"number,attr"`
}

type xmlExtension struct {
	Name         string       `xml:"name,attr"`
	Number       string       `xml:"number,attr"`
	Type         string       `xml:"type,attr"`
	Supported    string       `xml:"supported,attr"`
	Depends      string       `xml:"depends,attr"`
	PromotedTo   string       `xml:"promotedto,attr"`
	ObsoletedBy  string       `xml:"obsoletedby,attr"`
	ObsoletedBy2 string       `xml:"obsoleted_by,attr"`
	DeprecatedBy string       `xml:"deprecatedby,attr"`
	Requires     []xmlRequire `xml:"require"`
}

type xmlRequire struct {
	Enums []xmlEnum    `xml:"enum"`
	Types []xmlTypeRef `xml:"type"`
}

type xmlEnum struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlTypeRef struct {
	Name string `xml:"name,attr"`
}
