package mongovault

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
)

// summaryProjection excludes tokens from everything the read surface loads.
var summaryProjection = bson.M{
	"_id":          1,
	"email":        1,
	"display_name": 1,
	"avatar_url":   1,
	"created_at":   1,
	"link_keys":    1,
}

func (v *Vault) GetAccount(ctx context.Context, id string) (*identity.AccountSummary, error) {
	var doc summaryDocument
	err := v.coll.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(summaryProjection)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, identity.ErrAccountNotFound
		}
		return nil, fmt.Errorf("mongovault: get account: %w", err)
	}
	s := doc.summary()
	return &s, nil
}

func (v *Vault) ListAccounts(ctx context.Context, opts identity.ListOptions) ([]identity.AccountSummary, error) {
	opts = opts.Normalize()

	cur, err := v.coll.Find(ctx, bson.M{}, options.Find().
		SetProjection(summaryProjection).
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit)),
	)
	if err != nil {
		return nil, fmt.Errorf("mongovault: list accounts: %w", err)
	}

	var docs []summaryDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongovault: list accounts: %w", err)
	}

	out := make([]identity.AccountSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.summary())
	}
	return out, nil
}
