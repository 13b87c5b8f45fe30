package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pitchtrack-go/core/state"
	"pitchtrack-go/domain/analysis"
	"pitchtrack-go/domain/color"
)

// AnalysisCollection is the collection holding analysis runs.
const AnalysisCollection = "analysis_runs"

// analysisDocument is the MongoDB document structure for analysis runs.
type analysisDocument struct {
	ID         string    `bson:"_id"`
	VideoPath  string    `bson:"video_path"`
	Team1      string    `bson:"team1_color"`
	Team2      string    `bson:"team2_color"`
	State      string    `bson:"state"`
	ExitCode   int       `bson:"exit_code"`
	Error      string    `bson:"error,omitempty"`
	StartedAt  time.Time `bson:"started_at"`
	FinishedAt time.Time `bson:"finished_at,omitempty"`
}

// MongoAnalysisRepository implements analysis.Repository using MongoDB.
type MongoAnalysisRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoAnalysisRepository creates a new MongoDB-based analysis repository.
func NewMongoAnalysisRepository(db *MongoDB, logger *slog.Logger) *MongoAnalysisRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoAnalysisRepository{
		collection: db.Analyses(),
		logger:     logger,
	}
}

// Insert stores a new record.
func (r *MongoAnalysisRepository) Insert(ctx context.Context, rec *analysis.Record) error {
	if _, err := r.collection.InsertOne(ctx, recordToDocument(rec)); err != nil {
		return fmt.Errorf("failed to insert analysis record: %w", err)
	}
	r.logger.Debug("Analysis record inserted", "id", rec.ID)
	return nil
}

// MarkRunning records that the analyzer process was spawned.
func (r *MongoAnalysisRepository) MarkRunning(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{"state": state.StateRunning.String()}}
	return r.update(ctx, id, update)
}

// Finish stores the terminal state of a job.
func (r *MongoAnalysisRepository) Finish(ctx context.Context, id string, st state.JobState, exitCode int, errMsg string, finishedAt time.Time) error {
	update := bson.M{"$set": bson.M{
		"state":       st.String(),
		"exit_code":   exitCode,
		"error":       errMsg,
		"finished_at": finishedAt,
	}}
	if err := r.update(ctx, id, update); err != nil {
		return err
	}
	r.logger.Info("Analysis record finished", "id", id, "state", st, "exit_code", exitCode)
	return nil
}

func (r *MongoAnalysisRepository) update(ctx context.Context, id string, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update analysis record: %w", err)
	}
	if result.MatchedCount == 0 {
		return analysis.ErrRecordNotFound
	}
	return nil
}

// FindByID returns nil if not found.
func (r *MongoAnalysisRepository) FindByID(ctx context.Context, id string) (*analysis.Record, error) {
	var doc analysisDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find analysis record: %w", err)
	}
	return documentToRecord(&doc), nil
}

// FindRecent returns up to limit records, newest first.
func (r *MongoAnalysisRepository) FindRecent(ctx context.Context, limit int) ([]*analysis.Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find analysis records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []analysisDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode analysis records: %w", err)
	}

	records := make([]*analysis.Record, len(docs))
	for i := range docs {
		records[i] = documentToRecord(&docs[i])
	}
	return records, nil
}

// recordToDocument converts a domain Record to a MongoDB document.
func recordToDocument(rec *analysis.Record) *analysisDocument {
	return &analysisDocument{
		ID:         rec.ID,
		VideoPath:  rec.VideoPath,
		Team1:      rec.Team1.Hex(),
		Team2:      rec.Team2.Hex(),
		State:      rec.State.String(),
		ExitCode:   rec.ExitCode,
		Error:      rec.Error,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
	}
}

// documentToRecord converts a MongoDB document to a domain Record.
// Unparseable colors or states decode as zero values.
func documentToRecord(doc *analysisDocument) *analysis.Record {
	team1, _ := color.Decode(doc.Team1)
	team2, _ := color.Decode(doc.Team2)
	st, _ := state.ParseJobState(doc.State)

	return &analysis.Record{
		ID:         doc.ID,
		VideoPath:  doc.VideoPath,
		Team1:      team1,
		Team2:      team2,
		State:      st,
		ExitCode:   doc.ExitCode,
		Error:      doc.Error,
		StartedAt:  doc.StartedAt,
		FinishedAt: doc.FinishedAt,
	}
}

var _ analysis.Repository = (*MongoAnalysisRepository)(nil)
