package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Document is the schemaless payload of one stored record.
type Document map[string]interface{}

// Doc is one stored record together with its identity and durable path.
type Doc struct {
	ID   string
	Path string
	Data Document
}

// Snapshot is the full set of documents currently known for a subscribed
// collection pattern. Every change notification carries a complete snapshot;
// consumers replace their projection wholesale.
type Snapshot struct {
	Pattern string
	Docs    []Doc
}

type (
	ChangeHandler func(Snapshot)
	ErrorHandler  func(error)
	Unsubscribe   func()
)

// Store is a keyed document store with live collection-change subscription.
// Collection paths are hierarchical ("customers/alice/cart") or flat
// ("orders"); subscription patterns may use "*" as a single-segment
// wildcard ("customers/*/orders").
type Store interface {
	Create(ctx context.Context, collection string, doc Document) (string, error)
	Update(ctx context.Context, docPath string, fields Document) error
	Delete(ctx context.Context, docPath string) error
	DeleteAll(ctx context.Context, collection string) error
	Subscribe(ctx context.Context, pattern string, onChange ChangeHandler, onError ErrorHandler) (Unsubscribe, error)
}

const (
	OrdersCollection       = "orders"
	OrderHistoryCollection = "orderHistory"

	// AllOrdersPattern covers every customer's private order collection,
	// the admin dashboard's view of the world.
	AllOrdersPattern = "customers/*/orders"
)

func CartPath(customer string) string {
	return "customers/" + customer + "/cart"
}

func CustomerOrdersPath(customer string) string {
	return "customers/" + customer + "/orders"
}

// SplitDocPath separates a document path into its collection and document
// ID. The ID is the final segment.
func SplitDocPath(docPath string) (collection, id string, err error) {
	idx := strings.LastIndex(docPath, "/")
	if idx <= 0 || idx == len(docPath)-1 {
		return "", "", fmt.Errorf("invalid document path %q", docPath)
	}
	return docPath[:idx], docPath[idx+1:], nil
}

// MatchPattern reports whether a collection path matches a subscription
// pattern. "*" matches exactly one path segment.
func MatchPattern(pattern, collection string) bool {
	ps := strings.Split(pattern, "/")
	cs := strings.Split(collection, "/")
	if len(ps) != len(cs) {
		return false
	}
	for i := range ps {
		if ps[i] != "*" && ps[i] != cs[i] {
			return false
		}
	}
	return true
}

// Encode converts a domain value into a Document via a JSON round trip, so
// the stored field names are the wire names and nested values become plain
// maps and slices.
func Encode(v interface{}) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Decode populates out from a Document, tolerating the numeric type drift
// introduced by JSON and BSON round trips.
func Decode(doc Document, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]interface{}(doc))
}
