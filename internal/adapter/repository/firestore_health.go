package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

type FirestorePinger struct {
	client *firestore.Client
}

func NewFirestorePinger(client *firestore.Client) *FirestorePinger {
	return &FirestorePinger{client: client}
}

// Ping reads at most one chat document to prove the connection works.
func (p *FirestorePinger) Ping(ctx context.Context) error {
	iter := p.client.Collection(chatsCollection).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return err
	}
	return nil
}
