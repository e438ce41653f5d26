package mongo

/*
Хранилище отметок в MongoDB.

Раздел настроек fix_store:

driver = "mongodb"
uri = "mongodb://localhost:27017"
database = "gpstrack"
collection = "gps_fix"

Время отметки хранится целым числом микросекунд Unix, уникальный индекс (device_id, recorded_us)
отвечает за отбрасывание дубликатов.
*/

import (
	"context"
	"fmt"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/dto/db/in/filter"
	"github.com/daniil11ru/gpstrack/cli/receiver/source/primary"
	"github.com/daniil11ru/gpstrack/cli/receiver/types"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultDatabase   = "gpstrack"
	DefaultCollection = "gps_fix"

	connectTimeout = 10 * time.Second
)

type document struct {
	RecordedUs int64   `bson:"recorded_us"`
	DeviceID   string  `bson:"device_id"`
	Latitude   float64 `bson:"latitude"`
	Longitude  float64 `bson:"longitude"`
	Altitude   float64 `bson:"altitude"`
	Satellites int     `bson:"num_satellites"`
	HDOP       float64 `bson:"hdop"`
	Quality    int     `bson:"quality"`
	Speed      float64 `bson:"speed_kmh"`
	Course     float64 `bson:"course"`
}

func toDocument(fix types.Fix) document {
	return document{
		RecordedUs: fix.Timestamp.UTC().Truncate(primary.Precision).UnixMicro(),
		DeviceID:   fix.DeviceID,
		Latitude:   fix.Latitude,
		Longitude:  fix.Longitude,
		Altitude:   fix.Altitude,
		Satellites: fix.Satellites,
		HDOP:       fix.HDOP,
		Quality:    fix.Quality,
		Speed:      fix.Speed,
		Course:     fix.Course,
	}
}

func (d document) fix() types.Fix {
	return types.Fix{
		Timestamp:  time.UnixMicro(d.RecordedUs).UTC(),
		DeviceID:   d.DeviceID,
		Latitude:   d.Latitude,
		Longitude:  d.Longitude,
		Altitude:   d.Altitude,
		Satellites: d.Satellites,
		HDOP:       d.HDOP,
		Quality:    d.Quality,
		Speed:      d.Speed,
		Course:     d.Course,
	}
}

// query условие выборки по фильтру, интервал [After; Before)
func query(f filter.Fixes) bson.M {
	q := bson.M{}
	if f.DeviceID != nil {
		q["device_id"] = *f.DeviceID
	}
	if f.After != nil || f.Before != nil {
		recorded := bson.M{}
		if f.After != nil {
			recorded["$gte"] = f.After.UTC().Truncate(primary.Precision).UnixMicro()
		}
		if f.Before != nil {
			recorded["$lt"] = f.Before.UTC().Truncate(primary.Precision).UnixMicro()
		}
		q["recorded_us"] = recorded
	}
	if f.MinQuality != nil {
		q["quality"] = bson.M{"$gte": *f.MinQuality}
	}
	return q
}

type PrimarySource struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func Connect(ctx context.Context, settings map[string]string) (*PrimarySource, error) {
	uri := settings["uri"]
	if uri == "" {
		return nil, fmt.Errorf("не задан uri MongoDB")
	}
	database := settings["database"]
	if database == "" {
		database = DefaultDatabase
	}
	collection := settings["collection"]
	if collection == "" {
		collection = DefaultCollection
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к MongoDB: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("MongoDB недоступна: %w", err)
	}

	p := &PrimarySource{client: client, collection: client.Database(database).Collection(collection)}
	_, err = p.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "device_id", Value: 1}, {Key: "recorded_us", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("gps_fix_device_recorded"),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("не удалось создать индекс отметок: %w", err)
	}

	log.WithFields(log.Fields{"database": database, "collection": collection}).Info("Подключено хранилище отметок MongoDB")
	return p, nil
}

func (p *PrimarySource) AddFix(ctx context.Context, fix types.Fix) (bool, error) {
	if _, err := p.collection.InsertOne(ctx, toDocument(fix)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("не удалось сохранить отметку %s: %w", fix, err)
	}
	return true, nil
}

func (p *PrimarySource) GetFixes(ctx context.Context, f filter.Fixes) ([]types.Fix, error) {
	opts := options.Find().SetSort(bson.D{{Key: "recorded_us", Value: 1}, {Key: "device_id", Value: 1}})
	cursor, err := p.collection.Find(ctx, query(f), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []document
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	fixes := make([]types.Fix, 0, len(docs))
	for _, d := range docs {
		fixes = append(fixes, d.fix())
	}
	return fixes, nil
}

func (p *PrimarySource) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return p.client.Disconnect(ctx)
}

var _ primary.PrimarySource = (*PrimarySource)(nil)
