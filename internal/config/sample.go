package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const sampleDocumentYAML = `# wa-scheduler configuration
contacts:
  personal:
    - name: John Doe
      phone: "+1234567890"   # always include the country code
      messages:
        - type: text
          content: Good morning! Have a great day!
          time: "09:00"
  groups:
    # name must match the WhatsApp group subject exactly (see: wa-scheduler groups)
    - name: Family Group
      messages:
        - type: text
          content: Good morning everyone!
          time: "08:30"
        - type: image
          image_path: images/motivational_quote.jpg
          caption: Daily motivation!
          time: "18:00"
        - type: text
          content: Weekly planning reminder
          cron: "0 8 * * 1"   # instead of time: every Monday at 08:00

settings:
  wait_time: 20         # seconds to wait after connecting / opening WhatsApp Web
  close_tab: true       # close the browser tab after sending (browser driver)
  image_formats: [".jpg", ".jpeg", ".png", ".gif"]
  retry_attempts: 2     # retries after the first failed attempt
  retry_delay: 30       # seconds between attempts
  timezone: local       # or an IANA name such as Europe/Berlin
  driver: whatsmeow     # whatsmeow | browser
  # notify_webhook: https://example.com/hooks/wa-failures
`

// WriteSample creates a commented sample document. Existing files are never
// overwritten.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleDocumentYAML), 0o644); err != nil {
		return fmt.Errorf("config: write sample: %w", err)
	}
	return nil
}
