package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookflow/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/oauth2"
)

// storedCredential is the persisted shape of an exchanged OAuth token. The
// exchange itself is handled by the admin surface, outside the engine.
type storedCredential struct {
	Ref          string    `bson:"ref"`
	AccessToken  string    `bson:"access_token"`
	RefreshToken string    `bson:"refresh_token,omitempty"`
	TokenType    string    `bson:"token_type"`
	Expiry       time.Time `bson:"expiry"`
}

// MongoTokenStore reads stored calendar credentials from the datastore.
type MongoTokenStore struct {
	coll *mongo.Collection
}

func NewMongoTokenStore() *MongoTokenStore {
	return &MongoTokenStore{coll: database.Collection("calendar_credentials")}
}

func (s *MongoTokenStore) Token(ctx context.Context, credentialRef string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var cred storedCredential
	if err := s.coll.FindOne(ctx, bson.M{"ref": credentialRef}).Decode(&cred); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("credential %s: %w", credentialRef, ErrAuthExpired)
		}
		return nil, fmt.Errorf("failed to load credential %s: %w", credentialRef, err)
	}
	return &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    cred.TokenType,
		Expiry:       cred.Expiry,
	}, nil
}
