package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tazhibayda/auth-gateway/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

const usersCollection = "users"

type MongoStore struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// userDoc keeps the field names of the existing users collection;
// the bcrypt hash lives under "password".
type userDoc struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Provider     string               `bson:"provider,omitempty"`
	ProviderID   string               `bson:"provider_id,omitempty"`
	Username     string               `bson:"username,omitempty"`
	Email        string               `bson:"email"`
	Name         string               `bson:"name,omitempty"`
	Picture      string               `bson:"picture,omitempty"`
	PasswordHash string               `bson:"password,omitempty"`
	Subscription *domain.Subscription `bson:"abonnement,omitempty"`
	CreatedAt    string               `bson:"created_at,omitempty"`
	UpdatedAt    string               `bson:"updated_at,omitempty"`
}

func toDoc(u *domain.User) userDoc {
	return userDoc{
		Provider:     u.Provider,
		ProviderID:   u.ProviderID,
		Username:     u.Username,
		Email:        u.Email,
		Name:         u.Name,
		Picture:      u.Picture,
		PasswordHash: u.PasswordHash,
		Subscription: u.Subscription,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Provider:     d.Provider,
		ProviderID:   d.ProviderID,
		Username:     d.Username,
		Email:        d.Email,
		Name:         d.Name,
		Picture:      d.Picture,
		PasswordHash: d.PasswordHash,
		Subscription: d.Subscription,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func NewMongoStore(ctx context.Context, uri, dbname string) (*MongoStore, error) {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return &MongoStore{Client: cli, DB: cli.Database(dbname)}, nil
}

func (s *MongoStore) users() *mongo.Collection { return s.DB.Collection(usersCollection) }

// EnsureIndexes creates the unique indexes the reconciler relies on.
// Both are partial: local and federated records never collide with each other.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("uniq_local_email").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"password": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "provider", Value: 1}, {Key: "provider_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_provider_identity").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"provider_id": bson.M{"$exists": true}}),
		},
	})
	if err != nil {
		return fmt.Errorf("ensure user indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return s.findOne(ctx, "find_by_id", bson.M{"_id": oid})
}

func (s *MongoStore) FindLocalUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, "find_local", bson.M{"email": email, "password": bson.M{"$exists": true}})
}

func (s *MongoStore) FindUserByProvider(ctx context.Context, provider, providerID string) (*domain.User, error) {
	return s.findOne(ctx, "find_by_provider", bson.M{"provider": provider, "provider_id": providerID})
}

func (s *MongoStore) findOne(ctx context.Context, op string, filter bson.M) (*domain.User, error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.users."+op)
	defer sp.Finish()

	var d userDoc
	err := s.users().FindOne(ctx, filter).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		sp.SetTag("error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return d.toDomain(), nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.users.insert",
		tracer.Tag("provider", u.Provider),
	)
	defer sp.Finish()

	d := toDoc(u)
	res, err := s.users().InsertOne(ctx, d)
	if IsDup(err) {
		return nil, domain.ErrDuplicate
	}
	if err != nil {
		sp.SetTag("error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		d.ID = oid
	}
	return d.toDomain(), nil
}

func (s *MongoStore) TouchUser(ctx context.Context, id, updatedAt string) (*domain.User, error) {
	return s.update(ctx, "touch", id, bson.M{"updated_at": updatedAt})
}

func (s *MongoStore) SetSubscription(ctx context.Context, id string, sub *domain.Subscription) (*domain.User, error) {
	return s.update(ctx, "set_subscription", id, bson.M{"abonnement": sub})
}

func (s *MongoStore) update(ctx context.Context, op, id string, set bson.M) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.users."+op)
	defer sp.Finish()

	var d userDoc
	err = s.users().FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		sp.SetTag("error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return d.toDomain(), nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.Client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// IsDup reports a unique index violation (E11000).
func IsDup(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return false
}
