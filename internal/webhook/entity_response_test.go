package webhook

import (
	"net/http"
	"reflect"
	"testing"
)

func TestNewResponse(t *testing.T) {
	got := NewResponse()
	if got == nil {
		t.Fatal("NewResponse() returned nil")
	}
	if got.Status != 0 {
		t.Errorf("Expected Status to be 0, got %d", got.Status)
	}
	if got.Body != nil {
		t.Errorf("Expected Body to be nil, got %v", got.Body)
	}
}

func TestResponse_SetStatus(t *testing.T) {
	r := NewResponse()
	status := 200

	result := r.SetStatus(status)

	if result != r {
		t.Error("SetStatus() should return the same instance for chaining")
	}
	if r.Status != status {
		t.Errorf("Expected Status to be %d, got %d", status, r.Status)
	}
}

func TestResponse_SetHeader(t *testing.T) {
	r := NewResponse()
	header := http.Header{
		"Content-Type":    []string{"application/json"},
		"Authorization":   []string{"Bearer token123"},
		"X-Custom-Header": []string{"value1", "value2"},
	}

	result := r.SetHeader(header)

	if result != r {
		t.Error("SetHeader() should return the same instance for chaining")
	}
	if !reflect.DeepEqual(r.Header, header) {
		t.Errorf("Expected Header to be %v, got %v", header, r.Header)
	}
}

func TestResponse_SetBody(t *testing.T) {
	r := NewResponse()
	body := []byte(`{"message": "hello world"}`)

	result := r.SetBody(body)

	if result != r {
		t.Error("SetBody() should return the same instance for chaining")
	}
	if !reflect.DeepEqual(r.Body, body) {
		t.Errorf("Expected Body to be %v, got %v", body, r.Body)
	}
}

func TestResponse_Chaining(t *testing.T) {
	body := []byte(`{"success": true}`)
	header := http.Header{"Content-Type": []string{"application/json"}}
	status := 201

	r := NewResponse().
		SetStatus(status).
		SetHeader(header).
		SetBody(body)

	if r.Status != status {
		t.Errorf("Expected Status %d, got %d", status, r.Status)
	}
	if !reflect.DeepEqual(r.Header, header) {
		t.Errorf("Expected Header %v, got %v", header, r.Header)
	}
	if !reflect.DeepEqual(r.Body, body) {
		t.Errorf("Expected Body %v, got %v", body, r.Body)
	}
}

func TestResponse_Overwrite(t *testing.T) {
	r := NewResponse()

	r.SetStatus(200).SetBody([]byte("first"))
	r.SetStatus(201).SetBody([]byte("second"))

	if r.Status != 201 {
		t.Errorf("Expected Status 201 after overwrite, got %d", r.Status)
	}
	if string(r.Body) != "second" {
		t.Errorf("Expected Body 'second' after overwrite, got %s", r.Body)
	}
}
