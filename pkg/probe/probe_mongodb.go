package probe

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/mittwald/mittsmoke/internal/helper"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type mongoDBProbe struct {
	url          string
	host         string
	database     string
	collection   string
	minDocuments int64
}

func NewMongoDBProbe(cfg *config.MongoDB, r *config.Resolver) (*mongoDBProbe, error) {
	user, password, hostname, port := cfg.User, cfg.Password, cfg.Hostname, cfg.Port
	database, rawURL, collection := cfg.Database, cfg.URL, cfg.Collection
	if err := resolveStrings(r, &user, &password, &hostname, &port, &database, &rawURL, &collection); err != nil {
		return nil, err
	}

	host := net.JoinHostPort(
		helper.SetDefaultStringIfEmpty(hostname, "localhost", "hostname", "mongodb"),
		helper.SetDefaultStringIfEmpty(port, "27017", "port", "mongodb"),
	)

	if rawURL == "" {
		u := url.URL{Scheme: "mongodb", Host: host, Path: "/" + database}
		if user != "" {
			u.User = url.UserPassword(user, password)
		}
		rawURL = u.String()
	}

	if collection != "" && database == "" {
		return nil, fmt.Errorf("collection %q requires a database", collection)
	}

	return &mongoDBProbe{
		url:          rawURL,
		host:         host,
		database:     database,
		collection:   collection,
		minDocuments: cfg.MinDocuments,
	}, nil
}

func (m *mongoDBProbe) Exec(ctx context.Context) (string, error) {
	client, err := mongo.NewClient(options.Client().ApplyURI(m.url))
	if err != nil {
		return "", &QueryError{Err: err}
	}

	if err := client.Connect(ctx); err != nil {
		return "", &QueryError{Err: fmt.Errorf("failed to connect to mongodb at %s: %w", m.host, err)}
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = client.Disconnect(closeCtx)
	}()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return "", &QueryError{Err: err}
	}

	detail := "ping ok"
	if m.collection != "" {
		count, err := client.Database(m.database).Collection(m.collection).CountDocuments(ctx, bson.D{})
		if err != nil {
			return "", &QueryError{Query: "count " + m.collection, Err: err}
		}
		if count < m.minDocuments {
			return "", &QueryError{
				Query: "count " + m.collection,
				Err:   fmt.Errorf("returned %d documents, expected at least %d", count, m.minDocuments),
			}
		}
		detail = fmt.Sprintf("%d documents in %s", count, m.collection)
	}

	log.WithFields(log.Fields{"kind": "probe", "name": "mongodb", "status": "alive", "host": m.host}).Debug()

	return detail, nil
}

func (m *mongoDBProbe) String() string {
	if m.collection != "" {
		return "count " + m.database + "." + m.collection
	}
	return "ping " + m.host
}
