package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hsrobot/hsrobot_backend/config"
	"github.com/hsrobot/hsrobot_backend/models"
)

// OTPRepository stores OTP requests issued by the local fallback
// provider. The external gateway tracks its own requests; nothing
// gateway-issued ever lands here.
type OTPRepository struct {
	collection *mongo.Collection
}

func NewOTPRepository(db *mongo.Client) *OTPRepository {
	return &OTPRepository{
		collection: config.GetCollection(db, "otp_requests"),
	}
}

func (r *OTPRepository) Insert(ctx context.Context, req *models.OTPRequest) error {
	_, err := r.collection.InsertOne(ctx, req)
	return err
}

// Find returns the request by correlation id, or nil when unknown.
func (r *OTPRepository) Find(ctx context.Context, requestID string) (*models.OTPRequest, error) {
	var req models.OTPRequest
	err := r.collection.FindOne(ctx, bson.M{"requestId": requestID}).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// MarkVerified atomically flips verified from false to true and reports
// whether this caller won the transition. Two verify calls racing on the
// same request id resolve here: exactly one sees true.
func (r *OTPRepository) MarkVerified(ctx context.Context, requestID string) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"requestId": requestID, "verified": false},
		bson.M{"$set": bson.M{"verified": true}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// InvalidatePending removes unconsumed requests for a destination so a
// resend leaves only one live code per channel and purpose.
func (r *OTPRepository) InvalidatePending(ctx context.Context, destination string, channel models.Channel, purpose models.Purpose) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{
		"destination": destination,
		"channel":     channel,
		"purpose":     purpose,
		"verified":    false,
	})
	return err
}
