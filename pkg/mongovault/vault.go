package mongovault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/logger"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "accounts"

// Index names; duplicate key errors are classified by them.
const (
	indexEmail    = "email_unique"
	indexLinkKeys = "link_keys_unique"
	indexCreated  = "created_at_id"
)

// Ensure Vault implements identity.Store.
var _ identity.Store = (*Vault)(nil)

// Sealer encrypts tokens at rest; see secrets.Sealer.
type Sealer interface {
	Seal(plaintext, aad string) (string, error)
	Open(value, aad string) (string, error)
}

// Vault stores each account as a single document, so every write is atomic
// without transactions.
type Vault struct {
	coll   *mongo.Collection
	sealer Sealer
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Vault.
type Option func(*Vault)

// WithCollection overrides the collection name.
func WithCollection(name string) Option {
	return func(v *Vault) {
		if name != "" {
			v.coll = v.coll.Database().Collection(name)
		}
	}
}

// WithSealer encrypts provider tokens before they are written.
func WithSealer(s Sealer) Option {
	return func(v *Vault) { v.sealer = s }
}

// WithLogger configures the logger for the vault.
func WithLogger(l *slog.Logger) Option {
	return func(v *Vault) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithClock sets the time source for updated_at.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) {
		if now != nil {
			v.now = now
		}
	}
}

// New creates a vault on the given database. Call EnsureIndexes before serving traffic.
func New(db *mongo.Database, opts ...Option) *Vault {
	v := &Vault{
		coll:   db.Collection(DefaultCollection),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// EnsureIndexes creates the unique indexes the vault relies on. It is idempotent.
func (v *Vault) EnsureIndexes(ctx context.Context) error {
	_, err := v.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(indexEmail),
		},
		{
			Keys:    bson.D{{Key: "link_keys", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(indexLinkKeys),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName(indexCreated),
		},
	})
	if err != nil {
		return errors.Join(ErrEnsureIndexes, err)
	}
	return nil
}

func (v *Vault) FindByProviderSubject(ctx context.Context, provider identity.Provider, subjectID string) (*identity.Account, error) {
	return v.findOne(ctx, bson.M{"link_keys": identity.LinkKey(provider, subjectID)})
}

func (v *Vault) FindByEmail(ctx context.Context, email string) (*identity.Account, error) {
	return v.findOne(ctx, bson.M{"email": identity.NormalizeEmail(email)})
}

func (v *Vault) InsertAccount(ctx context.Context, draft identity.AccountDraft) (*identity.Account, error) {
	acc := draft.Account()
	acc.PrimaryEmail = identity.NormalizeEmail(acc.PrimaryEmail)

	doc := newAccountDocument(acc)
	if err := v.sealLinks(doc.Links); err != nil {
		return nil, err
	}

	if _, err := v.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, v.conflict(ctx, err, draft.Link, acc.PrimaryEmail, acc.ID)
		}
		return nil, fmt.Errorf("mongovault: insert account: %w", err)
	}

	v.logger.DebugContext(ctx, "account inserted",
		logger.Component("mongovault"),
		logger.AccountID(acc.ID),
		logger.Provider(draft.Link.Provider),
	)
	return acc, nil
}

func (v *Vault) AddOrUpdateLink(ctx context.Context, accountID string, link identity.ProviderLink) (*identity.Account, error) {
	ld := newLinkDocument(link)
	if err := v.sealLink(string(link.Provider), &ld); err != nil {
		return nil, err
	}

	var updated accountDocument
	err := v.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": accountID},
		linkUpdate(link, ld, v.now().UTC()),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	switch {
	case err == nil:
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, identity.ErrAccountNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, v.conflict(ctx, err, link, "", accountID)
	default:
		return nil, fmt.Errorf("mongovault: update link: %w", err)
	}

	return v.toAccount(updated)
}

// linkUpdate builds a pipeline update that swaps the provider's entry in
// link_keys on the server, so writes never depend on a previously read document.
func linkUpdate(link identity.ProviderLink, ld linkDocument, now time.Time) mongo.Pipeline {
	prefix := string(link.Provider) + ":"
	keepOthers := bson.M{"$filter": bson.M{
		"input": bson.M{"$ifNull": bson.A{"$link_keys", bson.A{}}},
		"as":    "k",
		"cond":  bson.M{"$ne": bson.A{bson.M{"$indexOfCP": bson.A{"$$k", prefix}}, 0}},
	}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "links." + string(link.Provider), Value: bson.M{"$literal": ld}},
			{Key: "link_keys", Value: bson.M{"$concatArrays": bson.A{keepOthers, bson.A{link.Key()}}}},
			{Key: "updated_at", Value: now},
			{Key: "version", Value: bson.M{"$add": bson.A{"$version", 1}}},
		}}},
	}
}

func (v *Vault) findOne(ctx context.Context, filter bson.M) (*identity.Account, error) {
	var doc accountDocument
	if err := v.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, identity.ErrAccountNotFound
		}
		return nil, fmt.Errorf("mongovault: find account: %w", err)
	}
	return v.toAccount(doc)
}

func (v *Vault) toAccount(doc accountDocument) (*identity.Account, error) {
	for p, l := range doc.Links {
		if err := v.openLink(p, &l); err != nil {
			return nil, err
		}
		doc.Links[p] = l
	}
	return doc.account(), nil
}

// conflict classifies a duplicate key error by index name and looks up the owner.
func (v *Vault) conflict(ctx context.Context, err error, link identity.ProviderLink, email, accountID string) error {
	msg := err.Error()

	var (
		c      *identity.ConflictError
		filter bson.M
	)
	switch {
	case strings.Contains(msg, indexLinkKeys):
		c = &identity.ConflictError{Kind: identity.ConflictProviderSubject, Provider: link.Provider, SubjectID: link.SubjectID}
		filter = bson.M{"link_keys": link.Key()}
	case strings.Contains(msg, indexEmail):
		c = &identity.ConflictError{Kind: identity.ConflictEmail, Email: email}
		filter = bson.M{"email": email}
	default:
		// _id collision: another writer created the same account first.
		return &identity.ConflictError{Kind: identity.ConflictStale, OwnerID: accountID}
	}

	var owner struct {
		ID string `bson:"_id"`
	}
	lookupErr := v.coll.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&owner)
	if lookupErr != nil && !errors.Is(lookupErr, mongo.ErrNoDocuments) {
		v.logger.WarnContext(ctx, "failed to look up conflicting account",
			logger.Component("mongovault"),
			logger.Error(lookupErr),
		)
	}
	c.OwnerID = owner.ID
	return c
}

func (v *Vault) sealLinks(links map[string]linkDocument) error {
	for p, l := range links {
		if err := v.sealLink(p, &l); err != nil {
			return err
		}
		links[p] = l
	}
	return nil
}

func (v *Vault) sealLink(provider string, l *linkDocument) error {
	if v.sealer == nil {
		return nil
	}
	aad := identity.LinkKey(identity.Provider(provider), l.SubjectID)
	var err error
	if l.AccessToken, err = v.sealer.Seal(l.AccessToken, aad); err != nil {
		return fmt.Errorf("mongovault: seal access token: %w", err)
	}
	if l.RefreshToken, err = v.sealer.Seal(l.RefreshToken, aad); err != nil {
		return fmt.Errorf("mongovault: seal refresh token: %w", err)
	}
	return nil
}

func (v *Vault) openLink(provider string, l *linkDocument) error {
	if v.sealer == nil {
		return nil
	}
	aad := identity.LinkKey(identity.Provider(provider), l.SubjectID)
	var err error
	if l.AccessToken, err = v.sealer.Open(l.AccessToken, aad); err != nil {
		return fmt.Errorf("mongovault: open access token: %w", err)
	}
	if l.RefreshToken, err = v.sealer.Open(l.RefreshToken, aad); err != nil {
		return fmt.Errorf("mongovault: open refresh token: %w", err)
	}
	return nil
}
