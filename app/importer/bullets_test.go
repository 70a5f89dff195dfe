package importer

import (
	"testing"
)

func TestExtractBullets_HTML(t *testing.T) {
	description := `<p>About the role</p>
<ul>
  <li>Build and maintain   backend services</li>
  <li>Own deployment pipelines</li>
</ul>`

	bullets := ExtractBullets(description)
	if len(bullets) != 2 {
		t.Fatalf("Expected 2 bullets, got %d", len(bullets))
	}
	if bullets[0] != "Build and maintain backend services" {
		t.Errorf("Expected whitespace-collapsed bullet, got %q", bullets[0])
	}
	if bullets[1] != "Own deployment pipelines" {
		t.Errorf("Unexpected second bullet: %q", bullets[1])
	}
}

func TestExtractBullets_PlainText(t *testing.T) {
	description := `What you'll do:
- Build backend services
* Own deployment pipelines
• Review pull requests
Just a normal line
`

	bullets := ExtractBullets(description)
	if len(bullets) != 3 {
		t.Fatalf("Expected 3 bullets, got %d", len(bullets))
	}
	if bullets[2] != "Review pull requests" {
		t.Errorf("Unexpected third bullet: %q", bullets[2])
	}
}

func TestExtractBullets_Cap(t *testing.T) {
	description := ""
	for i := 0; i < 30; i++ {
		description += "- bullet line\n"
	}

	bullets := ExtractBullets(description)
	if len(bullets) != maxBullets {
		t.Errorf("Expected bullets capped at %d, got %d", maxBullets, len(bullets))
	}
}

func TestExtractBullets_NoBullets(t *testing.T) {
	bullets := ExtractBullets("We are a fast growing company looking for talent.")
	if len(bullets) != 0 {
		t.Errorf("Expected no bullets, got %v", bullets)
	}
}
