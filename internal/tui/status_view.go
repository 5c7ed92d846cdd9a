package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MKhiriev/report-sync/models"
)

const maxShownChanges = 8

func renderStatus(st models.SyncStatus) string {
	var b strings.Builder

	d := st.Degradation
	fmt.Fprintf(&b, "Level        %s", levelStyle(d.Level).Render(d.Level))
	if !d.RealtimeEnabled {
		b.WriteString("  (realtime paused)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Batching     %d events / %s\n", d.BatchSize, d.UpdateInterval)
	fmt.Fprintf(&b, "Latency      %s avg, %.1f%% errors, %.0f MB\n",
		d.AverageLatency.Round(time.Millisecond), d.ErrorRate*100, d.MemoryMB)

	c := st.Connections
	b.WriteString("\n")
	fmt.Fprintf(&b, "Connections  %d active, %d users, %d total\n", c.Active, c.UniqueUsers, c.TotalEver)
	fmt.Fprintf(&b, "             %d closed, %d timed out, %d rejected\n", c.Disconnections, c.Timeouts, c.Rejected)
	fmt.Fprintf(&b, "Messages     %d sent, %d failed\n", c.MessagesSent, c.MessageFailures)
	fmt.Fprintf(&b, "Offline      %d clients, %d buffered events\n", st.OfflineClients, st.BufferedEvents)

	l := st.Locks
	b.WriteString("\n")
	fmt.Fprintf(&b, "Locks        %d held, %d acquired, %d rejected, %d expired\n", l.Active, l.Acquired, l.Rejected, l.Expired)

	br := st.Broker
	fmt.Fprintf(&b, "Broker       %d subscribers, %d buffered, %d published\n", br.Subscribers, br.Buffered, br.Published)
	fmt.Fprintf(&b, "             %d delivered, %d deduplicated, %d failed\n", br.Delivered, br.Deduplicated, br.DeliveryFailures)

	b.WriteString("\n")
	fmt.Fprintf(&b, "Conflicts    %d", st.Conflicts.Total)
	if len(st.Conflicts.ByType) > 0 {
		types := make([]string, 0, len(st.Conflicts.ByType))
		for t, n := range st.Conflicts.ByType {
			types = append(types, fmt.Sprintf("%s=%d", t, n))
		}
		slices.Sort(types)
		b.WriteString(" (" + strings.Join(types, ", ") + ")")
	}
	b.WriteString("\n")

	if len(st.CircuitBreakers) > 0 {
		b.WriteString("\nBreakers\n")
		names := make([]string, 0, len(st.CircuitBreakers))
		for name := range st.CircuitBreakers {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			state := st.CircuitBreakers[name]
			fmt.Fprintf(&b, "  %-22s %s\n", name, breakerStyle(state).Render(state))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderChanges(changes []models.SyncEvent) string {
	if len(changes) == 0 {
		return "No external changes found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "External changes: %d\n", len(changes))
	for i, e := range changes {
		if i == maxShownChanges {
			fmt.Fprintf(&b, "  ... and %d more\n", len(changes)-maxShownChanges)
			break
		}
		fmt.Fprintf(&b, "  %-15s %-24s v%d\n", e.EventType, fitText(e.RecordID, 24), e.Version)
	}
	return strings.TrimRight(b.String(), "\n")
}
