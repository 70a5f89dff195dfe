package importer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxBullets = 20

// ExtractBullets derives the structured-bullet form of a description. HTML
// descriptions yield their list items; plain text falls back to lines that
// look like bullets.
func ExtractBullets(description string) []string {
	bullets := bulletsFromHTML(description)
	if len(bullets) == 0 {
		bullets = bulletsFromText(description)
	}
	if len(bullets) > maxBullets {
		bullets = bullets[:maxBullets]
	}
	return bullets
}

func bulletsFromHTML(description string) []string {
	if !strings.Contains(description, "<") {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return nil
	}

	var bullets []string
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		text := strings.Join(strings.Fields(li.Text()), " ")
		if text != "" {
			bullets = append(bullets, text)
		}
	})
	return bullets
}

func bulletsFromText(description string) []string {
	var bullets []string
	for _, line := range strings.Split(description, "\n") {
		line = strings.TrimSpace(line)
		for _, marker := range []string{"- ", "* ", "• ", "– "} {
			if strings.HasPrefix(line, marker) {
				text := strings.TrimSpace(strings.TrimPrefix(line, marker))
				if text != "" {
					bullets = append(bullets, text)
				}
				break
			}
		}
	}
	return bullets
}
