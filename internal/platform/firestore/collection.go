package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
)

// Doc is a decoded document and its id.
type Doc[T any] struct {
	ID   string
	Data T
}

// Collection reads and writes documents of type T under a collection path. The path may name
// a subcollection, for example "carts/k1/lines".
type Collection[T any] struct {
	provider *Provider
	path     string
}

// NewCollection binds T to path on the provider's client.
func NewCollection[T any](provider *Provider, path string) *Collection[T] {
	return &Collection[T]{provider: provider, path: strings.Trim(strings.TrimSpace(path), "/")}
}

func (c *Collection[T]) op(action string) string {
	return c.path + "." + action
}

// Ref returns the underlying collection reference.
func (c *Collection[T]) Ref(ctx context.Context) (*firestore.CollectionRef, error) {
	if c == nil || c.provider == nil {
		return nil, errors.New("firestore: collection has no provider")
	}
	if c.path == "" {
		return nil, errors.New("firestore: collection path is required")
	}
	client, err := c.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(c.path), nil
}

// Doc returns the reference of document id, for use inside transactions.
func (c *Collection[T]) Doc(ctx context.Context, id string) (*firestore.DocumentRef, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, WrapError(c.op("doc"), errors.New("document id is required"))
	}
	coll, err := c.Ref(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Doc(id), nil
}

// Decode converts a snapshot read elsewhere, such as through a transaction.
func (c *Collection[T]) Decode(snap *firestore.DocumentSnapshot) (Doc[T], error) {
	var data T
	if err := snap.DataTo(&data); err != nil {
		return Doc[T]{}, fmt.Errorf("%s: decode %s: %w", c.path, snap.Ref.ID, err)
	}
	return Doc[T]{ID: snap.Ref.ID, Data: data}, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (Doc[T], error) {
	ref, err := c.Doc(ctx, id)
	if err != nil {
		return Doc[T]{}, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return Doc[T]{}, WrapError(c.op("get"), err)
	}
	return c.Decode(snap)
}

// Set overwrites document id with value.
func (c *Collection[T]) Set(ctx context.Context, id string, value T) error {
	ref, err := c.Doc(ctx, id)
	if err != nil {
		return err
	}
	_, err = ref.Set(ctx, value)
	return WrapError(c.op("set"), err)
}

// Create writes document id and reports a conflict when it already exists.
func (c *Collection[T]) Create(ctx context.Context, id string, value T) error {
	ref, err := c.Doc(ctx, id)
	if err != nil {
		return err
	}
	_, err = ref.Create(ctx, value)
	return WrapError(c.op("create"), err)
}

func (c *Collection[T]) Update(ctx context.Context, id string, updates []firestore.Update) error {
	ref, err := c.Doc(ctx, id)
	if err != nil {
		return err
	}
	_, err = ref.Update(ctx, updates)
	return WrapError(c.op("update"), err)
}

// Delete removes document id. A missing document is not an error.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	ref, err := c.Doc(ctx, id)
	if err != nil {
		return err
	}
	_, err = ref.Delete(ctx)
	return WrapError(c.op("delete"), err)
}

// Query runs the query built by refine over the collection and decodes every result.
func (c *Collection[T]) Query(ctx context.Context, refine func(firestore.Query) firestore.Query) ([]Doc[T], error) {
	coll, err := c.Ref(ctx)
	if err != nil {
		return nil, err
	}
	q := coll.Query
	if refine != nil {
		q = refine(q)
	}
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, WrapError(c.op("query"), err)
	}
	docs := make([]Doc[T], 0, len(snaps))
	for _, snap := range snaps {
		doc, err := c.Decode(snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
