package search

// The index schema is fixed: seven fields mirroring models.Document plus one
// "default" semantic configuration that ranks title above content. Existing
// populated indices depend on this exact shape.

type indexDefinition struct {
	Name       string           `json:"name"`
	Fields     []fieldDef       `json:"fields"`
	Semantic   semanticSettings `json:"semantic"`
	Similarity similarityDef    `json:"similarity"`
}

type fieldDef struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Searchable  bool   `json:"searchable"`
	Filterable  bool   `json:"filterable"`
	Retrievable bool   `json:"retrievable"`
	Sortable    bool   `json:"sortable"`
	Facetable   bool   `json:"facetable"`
	Key         bool   `json:"key"`
}

type semanticSettings struct {
	Configurations []semanticConfig `json:"configurations"`
}

type semanticConfig struct {
	Name              string            `json:"name"`
	PrioritizedFields prioritizedFields `json:"prioritizedFields"`
}

type prioritizedFields struct {
	TitleField                fieldName   `json:"titleField"`
	PrioritizedContentFields  []fieldName `json:"prioritizedContentFields"`
	PrioritizedKeywordsFields []fieldName `json:"prioritizedKeywordsFields"`
}

type fieldName struct {
	FieldName string `json:"fieldName"`
}

type similarityDef struct {
	ODataType string `json:"@odata.type"`
}

func newIndexDefinition(name string) indexDefinition {
	return indexDefinition{
		Name: name,
		Fields: []fieldDef{
			{Name: "id", Type: "Edm.String", Searchable: true, Filterable: true, Retrievable: true, Sortable: true, Facetable: true, Key: true},
			{Name: "doc_type", Type: "Edm.String", Searchable: true, Filterable: true, Retrievable: true},
			{Name: "page_title", Type: "Edm.String", Searchable: true, Filterable: true, Retrievable: true, Sortable: true},
			{Name: "title", Type: "Edm.String", Searchable: true, Filterable: true, Retrievable: true, Sortable: true, Facetable: true},
			{Name: "content", Type: "Edm.String", Searchable: true, Filterable: true, Retrievable: true},
			{Name: "file_name", Type: "Edm.String", Searchable: true, Filterable: true, Retrievable: true, Sortable: true, Facetable: true},
			{Name: "upload_date", Type: "Edm.DateTimeOffset", Filterable: true, Retrievable: true, Sortable: true, Facetable: true},
		},
		Semantic: semanticSettings{
			Configurations: []semanticConfig{
				{
					Name: "default",
					PrioritizedFields: prioritizedFields{
						TitleField:                fieldName{FieldName: "title"},
						PrioritizedContentFields:  []fieldName{{FieldName: "content"}},
						PrioritizedKeywordsFields: []fieldName{},
					},
				},
			},
		},
		Similarity: similarityDef{ODataType: "#Microsoft.Azure.Search.BM25Similarity"},
	}
}
