package repositories

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hsrobot/hsrobot_backend/config"
	"github.com/hsrobot/hsrobot_backend/models"
)

// AccountRepository is the account store. Uniqueness of sponsorId,
// traceId, email, phone and username is enforced by the unique indexes
// created in config.setupCollections.
type AccountRepository struct {
	collection *mongo.Collection
}

func NewAccountRepository(db *mongo.Client) *AccountRepository {
	return &AccountRepository{
		collection: config.GetCollection(db, "accounts"),
	}
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var account models.Account
	err := r.collection.FindOne(ctx, filter).Decode(&account)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByEmailOrPhone returns an account matching either identity field,
// or nil when none exists.
func (r *AccountRepository) FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"$or": []bson.M{
		{"email": email},
		{"phone": phone},
	}})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AccountRepository) FindBySponsorID(ctx context.Context, sponsorID string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"sponsorId": sponsorID})
}

func (r *AccountRepository) FindByTraceID(ctx context.Context, traceID string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"traceId": traceID})
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// FindDefault returns the single system default account.
func (r *AccountRepository) FindDefault(ctx context.Context) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"isDefault": true})
}

func (r *AccountRepository) SponsorIDExists(ctx context.Context, sponsorID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"sponsorId": sponsorID})
	return count > 0, err
}

func (r *AccountRepository) TraceIDExists(ctx context.Context, traceID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"traceId": traceID})
	return count > 0, err
}

// Insert persists a new account. Duplicate key violations are translated
// into DuplicateError naming the colliding field so callers can tell an
// identity collision (terminal) from an identifier collision (retry with
// fresh identifiers).
func (r *AccountRepository) Insert(ctx context.Context, account *models.Account) error {
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &models.DuplicateError{Field: duplicateKeyField(err)}
		}
		return err
	}
	return nil
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"password":  passwordHash,
			"updatedAt": time.Now(),
		},
	})
	return err
}

// duplicateKeyField extracts the colliding field name from a duplicate
// key error. Mongo embeds the index name in the message, e.g.
// "index: sponsorId_1 dup key".
func duplicateKeyField(err error) string {
	msg := err.Error()
	for _, field := range []string{"sponsorId", "traceId", "email", "phone", "username"} {
		if strings.Contains(msg, "index: "+field) {
			return field
		}
	}
	return "identity"
}
