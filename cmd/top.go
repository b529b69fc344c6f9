package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"github.com/goccy/go-json"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/service/dto"
	"github.com/urfave/cli/v2"
)

func topCmd() *cli.Command {
	return &cli.Command{
		Name:  "top",
		Usage: "Live dashboard of the scheduler, event streams and issue counts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: "http://localhost:8000",
				Usage: "Base URL of a running server",
			},
			&cli.StringFlag{
				Name:     "token",
				Usage:    "Admin access token",
				EnvVars:  []string{"TRACKLY_TOKEN"},
				Required: true,
			},
			&cli.DurationFlag{
				Name:  "refresh",
				Value: 2 * time.Second,
				Usage: "Polling interval",
			},
		},
		Action: func(c *cli.Context) error {
			client := &adminClient{
				base:  strings.TrimRight(c.String("addr"), "/"),
				token: c.String("token"),
				http:  &http.Client{Timeout: 5 * time.Second},
			}
			return runDashboard(c.Context, client, c.Duration("refresh"))
		},
	}
}

// snapshot is one poll of the admin endpoints.
type snapshot struct {
	Job     model.JobStatus
	Streams model.HubStats
	Summary dto.StatsSummary
	Err     error
}

type adminClient struct {
	base  string
	token string
	http  *http.Client
}

func (c *adminClient) poll(ctx context.Context) snapshot {
	var s snapshot
	for path, dst := range map[string]any{
		"/api/stats/scheduler/status": &s.Job,
		"/api/events/stats":           &s.Streams,
		"/api/stats/summary":          &s.Summary,
	} {
		if err := c.get(ctx, path, dst); err != nil {
			s.Err = err
			return s
		}
	}
	return s
}

func (c *adminClient) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("GET %s: %s %s", path, resp.Status, body.Detail)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// dashboard holds the widgets; render fills them from a snapshot.
type dashboard struct {
	job      *widgets.Table
	streams  *widgets.Paragraph
	severity *widgets.BarChart
	status   *widgets.Paragraph
}

func newDashboard() *dashboard {
	d := &dashboard{
		job:      widgets.NewTable(),
		streams:  widgets.NewParagraph(),
		severity: widgets.NewBarChart(),
		status:   widgets.NewParagraph(),
	}
	d.job.Title = " Aggregation job "
	d.job.SetRect(0, 0, 60, 9)
	d.streams.Title = " Event streams "
	d.streams.SetRect(60, 0, 100, 9)
	d.severity.Title = " Issues today by severity "
	d.severity.BarWidth = 10
	d.severity.SetRect(0, 9, 100, 22)
	d.status.Border = false
	d.status.SetRect(0, 22, 100, 24)
	return d
}

func (d *dashboard) render(s snapshot) {
	if s.Err != nil {
		d.status.Text = "[" + s.Err.Error() + "](fg:red)  q: quit"
		ui.Render(d.status)
		return
	}

	d.job.Rows = jobRows(s.Job)
	d.streams.Text = fmt.Sprintf("subscribers  %d\npublished    %d\ndropped      %d\nuptime       %s",
		s.Streams.ActiveSubscribers, s.Streams.Published, s.Streams.Dropped, s.Streams.Uptime.Round(time.Second))
	d.severity.Labels, d.severity.Data = severityBars(s.Summary.Today)
	d.status.Text = "updated " + time.Now().Format(time.TimeOnly) + "  q: quit"
	ui.Render(d.job, d.streams, d.severity, d.status)
}

func jobRows(j model.JobStatus) [][]string {
	rows := [][]string{
		{"state", string(j.State)},
		{"trigger", j.Trigger},
		{"in flight", fmt.Sprint(j.InFlight)},
		{"skipped fires", fmt.Sprint(j.Skipped)},
		{"next run", "-"},
		{"last run", "-"},
		{"last error", j.LastError},
	}
	if j.NextRun != nil {
		rows[4][1] = j.NextRun.Local().Format(time.DateTime)
	}
	if j.LastRunAt != nil {
		rows[5][1] = j.LastRunAt.Local().Format(time.DateTime)
	}
	return rows
}

func severityBars(today *dto.DailyStats) ([]string, []float64) {
	labels := []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}
	if today == nil {
		return labels, make([]float64, len(labels))
	}
	return labels, []float64{
		float64(today.SeverityLow),
		float64(today.SeverityMedium),
		float64(today.SeverityHigh),
		float64(today.SeverityCritical),
	}
}

func runDashboard(ctx context.Context, client *adminClient, every time.Duration) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer ui.Close()

	d := newDashboard()
	d.render(client.poll(ctx))

	events := ui.PollEvents()
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			switch e.ID {
			case "q", "<C-c>":
				return nil
			case "<Resize>":
				ui.Clear()
				d.render(client.poll(ctx))
			}
		case <-ticker.C:
			d.render(client.poll(ctx))
		}
	}
}
