package mongo

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMergeUpdateClearsEmptyOptionalFields(t *testing.T) {
	update := mergeUpdate("u1", &model.Mistake{
		ID:           "m1",
		QuestionText: "q",
		AIAnalysis:   "why",
	})

	set, ok := update["$set"].(bson.M)
	gt.Bool(t, ok).True().Required()
	unset, ok := update["$unset"].(bson.M)
	gt.Bool(t, ok).True().Required()

	gt.Value(t, set["aiAnalysis"]).Equal("why")
	_, hasKey := set["_id"]
	gt.Bool(t, hasKey).False()

	_, clearsSolution := unset["aiSolution"]
	gt.Bool(t, clearsSolution).True()
	_, clearsReflection := unset["reflection"]
	gt.Bool(t, clearsReflection).True()
	_, clearsUsage := unset["aiTokenUsage"]
	gt.Bool(t, clearsUsage).True()

	_, setsBackup := set["imageBase64"]
	gt.Bool(t, setsBackup).False()
	_, clearsBackup := unset["imageBase64"]
	gt.Bool(t, clearsBackup).False()
}

func TestDocumentKeyScopesByUser(t *testing.T) {
	a := toDocument("alice", &model.Mistake{ID: "m1"})
	b := toDocument("bob", &model.Mistake{ID: "m1"})
	gt.Value(t, a.Key).NotEqual(b.Key)
	gt.Value(t, a.Key).Equal("alice/m1")
}
