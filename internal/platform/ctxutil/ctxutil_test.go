package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestRequestDataRoundTrip(t *testing.T) {
	if GetRequestData(context.Background()) != nil {
		t.Fatalf("expected nil request data on bare context")
	}
	rd := &RequestData{UserID: uuid.New(), OrganizationID: uuid.New(), Roles: []string{"teacher"}}
	ctx := WithRequestData(context.Background(), rd)
	if got := GetRequestData(ctx); got != rd {
		t.Fatalf("request data not returned: %+v", got)
	}
}

func TestTraceDataRoundTrip(t *testing.T) {
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t", RequestID: "r"})
	td := GetTraceData(ctx)
	if td == nil || td.TraceID != "t" || td.RequestID != "r" {
		t.Fatalf("unexpected trace data: %+v", td)
	}
}
