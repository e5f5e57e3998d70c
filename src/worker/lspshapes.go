package worker

import "encoding/json"

// lspPosition mirrors the LSP Position shape.
type lspPosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// lspRange mirrors the LSP Range shape.
type lspRange struct {
	Start lspPosition `json:"start"`
	End   lspPosition `json:"end"`
}

// lspLocation mirrors the LSP Location shape.
type lspLocation struct {
	URI   string   `json:"uri"`
	Range lspRange `json:"range"`
}

// lspTextDocumentIdentifier mirrors the LSP TextDocumentIdentifier shape.
type lspTextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// lspTextDocumentPositionParams mirrors the LSP
// TextDocumentPositionParams shape used by definition and references
// requests.
type lspTextDocumentPositionParams struct {
	TextDocument lspTextDocumentIdentifier `json:"textDocument"`
	Position     lspPosition               `json:"position"`
}

// lspReferenceParams mirrors the LSP ReferenceParams shape.
type lspReferenceParams struct {
	lspTextDocumentPositionParams
	Context struct {
		IncludeDeclaration bool `json:"includeDeclaration"`
	} `json:"context"`
}

// lspDocumentSymbolParams mirrors the LSP DocumentSymbolParams shape.
type lspDocumentSymbolParams struct {
	TextDocument lspTextDocumentIdentifier `json:"textDocument"`
}

// lspDocumentSymbol mirrors the LSP DocumentSymbol shape: a symbol name
// with a SelectionRange pinpointing its declaration, plus nested
// children (methods inside a class, for instance).
type lspDocumentSymbol struct {
	Name           string              `json:"name"`
	SelectionRange lspRange            `json:"selectionRange"`
	Children       []lspDocumentSymbol `json:"children,omitempty"`
}

// decodeLocations handles the "textDocument/definition" response, which
// per the LSP spec may be a single Location, a Location array, or null,
// depending on the server and the number of matches.
func decodeLocations(raw json.RawMessage) ([]lspLocation, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var asArray []lspLocation
	if err := json.Unmarshal(raw, &asArray); err == nil {
		return asArray, nil
	}

	var single lspLocation
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	return []lspLocation{single}, nil
}

// flattenSymbols walks a DocumentSymbol tree and returns the selection
// range start of every node, depth-first.
func flattenSymbols(symbols []lspDocumentSymbol) []lspLocationlessSymbol {
	var out []lspLocationlessSymbol
	for _, s := range symbols {
		out = append(out, lspLocationlessSymbol{Name: s.Name, Position: s.SelectionRange.Start})
		out = append(out, flattenSymbols(s.Children)...)
	}
	return out
}

// lspLocationlessSymbol is a flattened DocumentSymbol entry: a name and
// a position within the file the request was issued for (its uri is
// implicit from the request, unlike lspLocation).
type lspLocationlessSymbol struct {
	Name     string
	Position lspPosition
}
