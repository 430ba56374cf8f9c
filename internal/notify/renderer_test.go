package notify

import (
	"strings"
	"testing"
)

func TestRenderLeaveApprovedEnglish(t *testing.T) {
	out := Render(Printer("en"), Input{
		MessageType: TypeLeaveApproved,
		PayloadJSON: `{"employee_name":"Aïssatou Mbarga","days":5}`,
	})
	if out.Subject != "Time off approved" {
		t.Fatalf("subject = %q", out.Subject)
	}
	if !strings.Contains(out.Body, "Aïssatou Mbarga") || !strings.Contains(out.Body, "5") {
		t.Fatalf("body = %q", out.Body)
	}
}

func TestRenderInviteSentFrench(t *testing.T) {
	out := Render(Printer("fr"), Input{
		MessageType: TypeInviteSent,
		PayloadJSON: `{"org_name":"Malaika SARL"}`,
	})
	if !strings.Contains(out.Subject, "Malaika SARL") {
		t.Fatalf("subject = %q", out.Subject)
	}
	if !strings.Contains(out.Body, "rejoindre") {
		t.Fatalf("body = %q", out.Body)
	}
}

func TestRenderUnknownTypeFallsBack(t *testing.T) {
	out := Render(Printer("en"), Input{MessageType: "mystery.event"})
	if out.Subject != "Notification" {
		t.Fatalf("subject = %q", out.Subject)
	}
}

func TestRenderBadPayloadFallsBack(t *testing.T) {
	out := Render(Printer("en"), Input{MessageType: TypeLeaveApproved, PayloadJSON: "{not json"})
	if out.Subject != "Notification" {
		t.Fatalf("subject = %q", out.Subject)
	}
}

func TestPrinterFallsBackToFrench(t *testing.T) {
	out := Render(Printer("??"), Input{MessageType: "mystery.event"})
	if !strings.Contains(out.Body, "nouvelle notification") {
		t.Fatalf("body = %q", out.Body)
	}
}
