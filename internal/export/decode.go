package export

import (
	"archive/tar"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// MessagesMember is the archive member holding the conversations document.
const MessagesMember = "messages.json"

var (
	ErrUnsupportedFile = errors.New("unsupported export file: expected .json or .tar")
	ErrMissingMessages = errors.New("export archive has no " + MessagesMember)
	ErrNoConversations = errors.New("export has no conversations")
	ErrInvalidExport   = errors.New("invalid export")
)

// Decode reads an export from r. The filename extension picks the container:
// a tar archive carrying messages.json, or the JSON document itself.
func Decode(r io.Reader, filename string) ([]Conversation, error) {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(path.Ext(filename)) {
	case ".tar":
		data, err = readTarMember(r, MessagesMember)
	case ".json":
		data, err = io.ReadAll(r)
		if err != nil {
			err = fmt.Errorf("read export: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
	}
	if err != nil {
		return nil, err
	}

	return ParseDocument(data)
}

// DecodeDataURL decodes an upload delivered as a base64 data URL
// ("data:<mime>;base64,<payload>").
func DecodeDataURL(contents, filename string) ([]Conversation, error) {
	_, payload, ok := strings.Cut(contents, ",")
	if !ok {
		return nil, fmt.Errorf("%w: data url has no payload", ErrInvalidExport)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: data url: %v", ErrInvalidExport, err)
	}
	return Decode(bytes.NewReader(raw), filename)
}

// ParseDocument parses a messages.json document and returns its conversations.
func ParseDocument(data []byte) ([]Conversation, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExport, err)
	}

	list, ok := doc.Get("conversations")
	if !ok || list.Kind() != KindArray {
		return nil, ErrNoConversations
	}

	convs := make([]Conversation, 0, len(list.Items()))
	for _, item := range list.Items() {
		convs = append(convs, conversationFrom(item))
	}
	return convs, nil
}

func readTarMember(r io.Reader, name string) ([]byte, error) {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, ErrMissingMessages
		}
		if err != nil {
			return nil, fmt.Errorf("%w: archive: %v", ErrInvalidExport, err)
		}
		if path.Clean(hdr.Name) != name {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
}
