package lsp

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/checker"
)

// Server is the ThinkLang language server of spec §4.12: a thin
// request dispatcher over Store's per-document analysis.
type Server struct {
	store     *Store
	transport *Transport
}

func NewServer(r io.Reader, w io.Writer) *Server {
	return &Server{store: NewStore(), transport: NewTransport(r, w)}
}

// Serve reads and dispatches requests/notifications until the
// transport returns an error (typically io.EOF on stdin close).
func (s *Server) Serve() error {
	for {
		msg, err := s.transport.ReadMessage()
		if err != nil {
			return err
		}
		s.dispatch(msg)
	}
}

func (s *Server) dispatch(msg RawMessage) {
	isRequest := len(msg.ID) > 0

	result, err := s.handle(msg.Method, msg.Params)
	if !isRequest {
		return
	}
	if err != nil {
		s.transport.WriteError(msg.ID, CodeInternalError, err.Error())
		return
	}
	s.transport.WriteResult(msg.ID, result)
}

func (s *Server) handle(method string, params json.RawMessage) (interface{}, error) {
	switch method {
	case "initialize":
		return InitializeResult{Capabilities: ServerCapabilities{
			HoverProvider:          true,
			DefinitionProvider:     true,
			DocumentSymbolProvider: true,
			CompletionProvider:     map[string]interface{}{"triggerCharacters": []string{".", "<"}},
			SignatureHelpProvider:  map[string]interface{}{"triggerCharacters": []string{"(", ","}},
			TextDocumentSync:       1,
		}}, nil

	case "shutdown":
		return nil, nil

	case "textDocument/didOpen":
		var p DidOpenTextDocumentParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		doc := s.store.Open(p.TextDocument.URI, p.TextDocument.Text)
		s.publishDiagnostics(doc)
		return nil, nil

	case "textDocument/didChange":
		var p DidChangeTextDocumentParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		if len(p.ContentChanges) == 0 {
			return nil, nil
		}
		doc := s.store.Update(p.TextDocument.URI, p.ContentChanges[len(p.ContentChanges)-1].Text)
		s.publishDiagnostics(doc)
		return nil, nil

	case "textDocument/didClose":
		var p DidCloseTextDocumentParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		s.store.Close(p.TextDocument.URI)
		return nil, nil

	case "textDocument/hover":
		var p TextDocumentPositionParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		doc, ok := s.store.Get(p.TextDocument.URI)
		if !ok {
			return nil, nil
		}
		res := Hover(doc, toASTPosition(p.Position))
		if res == nil {
			return nil, nil
		}
		r := toLSPRange(res.Range)
		return WireHover{Contents: MarkupContent{Kind: "markdown", Value: res.Markdown}, Range: &r}, nil

	case "textDocument/completion":
		var p TextDocumentPositionParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		doc, ok := s.store.Get(p.TextDocument.URI)
		if !ok {
			return CompletionList{}, nil
		}
		items := Completion(doc, toASTPosition(p.Position))
		return CompletionList{Items: items}, nil

	case "textDocument/definition":
		var p TextDocumentPositionParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		doc, ok := s.store.Get(p.TextDocument.URI)
		if !ok {
			return nil, nil
		}
		loc, ok := Definition(doc, toASTPosition(p.Position))
		if !ok {
			return nil, nil
		}
		return Location{URI: p.TextDocument.URI, Range: toLSPRange(loc)}, nil

	case "textDocument/documentSymbol":
		var p struct {
			TextDocument TextDocumentIdentifier `json:"textDocument"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		doc, ok := s.store.Get(p.TextDocument.URI)
		if !ok {
			return []DocumentSymbol{}, nil
		}
		return toWireSymbols(DocumentSymbols(doc)), nil

	case "textDocument/signatureHelp":
		var p TextDocumentPositionParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		doc, ok := s.store.Get(p.TextDocument.URI)
		if !ok {
			return nil, nil
		}
		help := SignatureHelpAt(doc, toASTPosition(p.Position))
		if help == nil {
			return nil, nil
		}
		sig := SignatureInformation{Label: help.Label}
		for _, param := range help.Params {
			sig.Parameters = append(sig.Parameters, ParameterInformation{Label: param})
		}
		return SignatureHelp{Signatures: []SignatureInformation{sig}, ActiveParameter: help.Active}, nil

	default:
		return nil, fmt.Errorf("unsupported method %q", method)
	}
}

func (s *Server) publishDiagnostics(doc *Document) {
	var diags []Diagnostic
	if doc.err != nil {
		diags = append(diags, Diagnostic{
			Range:    Range{Start: Position{0, 0}, End: Position{0, 0}},
			Severity: SeverityError,
			Message:  doc.err.Error(),
		})
	} else if doc.Check != nil {
		for _, d := range doc.Check.Errors {
			diags = append(diags, diagnosticFrom(d, SeverityError))
		}
		for _, d := range doc.Check.Warnings {
			diags = append(diags, diagnosticFrom(d, SeverityWarning))
		}
	}
	s.transport.WriteNotification("textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         doc.URI,
		Diagnostics: diags,
	})
}

func diagnosticFrom(d checker.Diagnostic, sev DiagnosticSeverity) Diagnostic {
	return Diagnostic{Range: toLSPRange(d.Location), Severity: sev, Message: d.Message}
}

// toASTPosition converts an LSP 0-indexed position to the 1-indexed
// ast.Position the parser/checker use (pkg/ast/location.go: convert
// only at the LSP boundary).
func toASTPosition(p Position) ast.Position {
	return ast.Position{Line: p.Line + 1, Column: p.Character + 1}
}

func toLSPPosition(p ast.Position) Position {
	return Position{Line: p.Line - 1, Character: p.Column - 1}
}

func toLSPRange(loc ast.Location) Range {
	return Range{Start: toLSPPosition(loc.Start), End: toLSPPosition(loc.End)}
}

func toWireSymbols(syms []DocumentSymbolResult) []DocumentSymbol {
	out := make([]DocumentSymbol, 0, len(syms))
	for _, s := range syms {
		r := toLSPRange(s.Loc)
		out = append(out, DocumentSymbol{
			Name:           s.Name,
			Kind:           s.Kind,
			Range:          r,
			SelectionRange: r,
			Children:       toWireSymbols(s.Children),
		})
	}
	return out
}
