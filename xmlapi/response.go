package xmlapi

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Status is the outcome reported by the status attribute of a reply.
type Status string

const (
	// StatusSuccess indicates the request was processed.
	StatusSuccess Status = "success"

	// StatusError indicates the device rejected the request.
	StatusError Status = "error"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusSuccess || s == StatusError
}

// Reply is implemented by every decodable reply shape.
//
// Envelope gives the decoder access to the shared envelope fields and
// Validate checks the invariants of the concrete shape after unmarshalling.
type Reply interface {
	Envelope() *Response
	Validate() error
}

// Response is the envelope common to every XML API reply.
type Response struct {
	XMLName xml.Name `xml:"response"`

	// Status is always present in a well-formed reply.
	Status Status `xml:"status,attr"`

	// Code is the optional numeric error code sent with error replies.
	Code int `xml:"code,attr,omitempty"`

	// Message is the text of result/msg on error replies. It is filled in
	// by Decode rather than by the XML mapping so that specialized replies
	// can own the result element.
	Message string `xml:"-"`
}

// Envelope returns r itself.
func (r *Response) Envelope() *Response {
	return r
}

// Success reports whether the reply status is success.
func (r *Response) Success() bool {
	return r.Status == StatusSuccess
}

// Validate checks that the status attribute carries a known value.
func (r *Response) Validate() error {
	switch {
	case r.Status == "":
		return &ProtocolError{Reason: "missing status attribute"}
	case !r.Status.Valid():
		return &ProtocolError{Reason: fmt.Sprintf("unknown status %q", r.Status)}
	}
	return nil
}

// KeyGenResult is the result element of a keygen reply.
type KeyGenResult struct {
	// Key is the generated API key.
	Key string `xml:"key"`
}

// KeyGenResponse is the reply to a type=keygen request.
type KeyGenResponse struct {
	XMLName xml.Name `xml:"response"`
	Response

	Result KeyGenResult `xml:"result"`
}

// Validate checks the envelope and, on success, that a key was returned.
// The key of an error reply is cleared.
func (r *KeyGenResponse) Validate() error {
	if err := r.Response.Validate(); err != nil {
		return err
	}
	if r.Status == StatusError {
		r.Result.Key = ""
		return nil
	}
	if r.Result.Key == "" {
		return &ProtocolError{Reason: "success reply without result/key"}
	}
	return nil
}

// errorBody captures the diagnostic message of an error reply. Devices put
// it either under result or directly under the root.
type errorBody struct {
	XMLName   xml.Name `xml:"response"`
	ResultMsg message  `xml:"result>msg"`
	RootMsg   message  `xml:"msg"`
}

// message is a msg element holding either text or a list of line elements.
type message struct {
	Text  string   `xml:",chardata"`
	Lines []string `xml:"line"`
}

func (m message) String() string {
	if len(m.Lines) > 0 {
		lines := make([]string, 0, len(m.Lines))
		for _, l := range m.Lines {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
		return strings.Join(lines, "; ")
	}
	return strings.TrimSpace(m.Text)
}

// Decode reads the reply from src and unmarshals it into out.
//
// Malformed XML, a root element other than response, and replies that fail
// out.Validate are reported as *ProtocolError. A failure to read src is
// returned as is, wrapped with context. The contents of out are undefined
// when an error is returned.
func Decode(src TextSource, out Reply) error {
	text, err := src.Text()
	if err != nil {
		return fmt.Errorf("xmlapi: read reply: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return &ProtocolError{Reason: "empty reply"}
	}

	data := []byte(text)
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(out); err != nil {
		return &ProtocolError{Reason: "malformed reply", Err: err}
	}
	if err := expectEOF(dec); err != nil {
		return &ProtocolError{Reason: "malformed reply", Err: err}
	}

	env := out.Envelope()
	if env.Status == StatusError {
		var body errorBody
		if err := xml.Unmarshal(data, &body); err == nil {
			env.Message = body.ResultMsg.String()
			if env.Message == "" {
				env.Message = body.RootMsg.String()
			}
		}
	}

	if err := out.Validate(); err != nil {
		if errors.As(err, new(*ProtocolError)) {
			return err
		}
		return &ProtocolError{Reason: "invalid reply", Err: err}
	}
	return nil
}

// expectEOF reports an error if anything other than whitespace, comments or
// processing instructions follows the root element.
func expectEOF(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch tok := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(tok)) != 0 {
				return errors.New("character data after root element")
			}
		default:
			return fmt.Errorf("unexpected %T after root element", tok)
		}
	}
}

// DecodeKeyGen decodes a keygen reply. It returns nil on any error.
func DecodeKeyGen(src TextSource) (*KeyGenResponse, error) {
	var resp KeyGenResponse
	if err := Decode(src, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
