// Package seeder generates synthetic cloud audit log entries for exercising a
// live analysisd without an upstream source.
package seeder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// Kinds of audit log entries the generator produces.
const (
	KindAdminActivity = "admin_activity"
	KindDataAccess    = "data_access"
	KindSystemEvent   = "system_event"
	KindPolicyDenied  = "policy_denied"
)

// Kinds lists every supported kind.
var Kinds = []string{KindAdminActivity, KindDataAccess, KindSystemEvent, KindPolicyDenied}

// Generator produces audit log entries. Two generators with the same seed
// produce the same sequence.
type Generator struct {
	faker *gofakeit.Faker
	now   func() time.Time

	// TimeSpread spreads entry timestamps backwards from now. Zero stamps
	// every entry with the current time.
	TimeSpread time.Duration
}

// NewGenerator returns a Generator. A zero seed picks a random one.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		faker: gofakeit.New(seed),
		now:   time.Now,
	}
}

// Entry returns one log entry of the given kind.
func (g *Generator) Entry(kind string) map[string]interface{} {
	f := g.faker
	project := fmt.Sprintf("%s-%s-%s", f.Word(), f.Word(), f.Numerify("######"))

	logType := "activity"
	severity := "NOTICE"
	switch kind {
	case KindDataAccess:
		logType = "data_access"
		severity = "INFO"
	case KindSystemEvent:
		logType = "system_event"
		severity = "INFO"
	case KindPolicyDenied:
		logType = "policy"
		severity = "ERROR"
	}

	entry := map[string]interface{}{
		"insertId":  f.LetterN(12),
		"logName":   fmt.Sprintf("projects/%s/logs/cloudaudit.googleapis.com%%2F%s", project, logType),
		"severity":  severity,
		"timestamp": g.timestamp().Format(time.RFC3339Nano),
		"resource": map[string]interface{}{
			"type": "gce_instance",
			"labels": map[string]interface{}{
				"project_id":  project,
				"zone":        f.RandomString([]string{"us-central1-a", "europe-west1-b", "asia-east1-c"}),
				"instance_id": f.Numerify("###################"),
			},
		},
		"protoPayload": g.payload(kind, project),
	}
	return entry
}

func (g *Generator) payload(kind, project string) map[string]interface{} {
	f := g.faker
	method := f.RandomString([]string{
		"v1.compute.instances.insert",
		"v1.compute.instances.delete",
		"v1.compute.firewalls.patch",
		"storage.objects.get",
		"SetIamPolicy",
	})
	if kind == KindDataAccess {
		method = f.RandomString([]string{"storage.objects.get", "storage.objects.list", "bigquery.jobs.create"})
	}

	payload := map[string]interface{}{
		"@type":        "type.googleapis.com/google.cloud.audit.AuditLog",
		"serviceName":  "compute.googleapis.com",
		"methodName":   method,
		"resourceName": fmt.Sprintf("projects/%s/zones/us-central1-a/instances/%s", project, f.Username()),
		"requestMetadata": map[string]interface{}{
			"callerIp":                f.IPv4Address(),
			"callerSuppliedUserAgent": f.UserAgent(),
		},
	}

	if kind != KindSystemEvent {
		payload["authenticationInfo"] = map[string]interface{}{
			"principalEmail": f.Email(),
		}
	}
	if kind == KindPolicyDenied {
		payload["status"] = map[string]interface{}{
			"code":    7,
			"message": "PERMISSION_DENIED",
		}
	}
	return payload
}

func (g *Generator) timestamp() time.Time {
	now := g.now().UTC()
	if g.TimeSpread <= 0 {
		return now
	}
	offset := time.Duration(g.faker.Int64()%int64(g.TimeSpread))
	if offset < 0 {
		offset = -offset
	}
	return now.Add(-offset)
}

// Payloads returns n JSON-encoded entries with kinds drawn from kinds, or from
// Kinds when kinds is empty.
func (g *Generator) Payloads(n int, kinds ...string) ([]string, error) {
	if len(kinds) == 0 {
		kinds = Kinds
	}
	for _, k := range kinds {
		if !validKind(k) {
			return nil, fmt.Errorf("unknown event kind %q", k)
		}
	}

	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		kind := kinds[g.faker.Number(0, len(kinds)-1)]
		data, err := json.Marshal(g.Entry(kind))
		if err != nil {
			return nil, fmt.Errorf("marshal %s entry: %w", kind, err)
		}
		out = append(out, string(data))
	}
	return out, nil
}

func validKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}
