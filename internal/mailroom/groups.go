package mailroom

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/metrics"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/models"
)

// Group ids carry the "@" convention prefix; agent addresses are bare
// names with the same character set. Both are namespaced to one group.
const (
	groupIDPattern = `^@[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`
	addressPattern = `^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`
)

var (
	groupIDRegex = regexp.MustCompile(groupIDPattern)
	addressRegex = regexp.MustCompile(addressPattern)
)

// CreateGroup provisions a group with an initial roster. The roster may
// be empty; agents can be added later.
func (s *Service) CreateGroup(ctx context.Context, id string, agents []string) (*models.Group, error) {
	id = strings.TrimSpace(id)
	if !groupIDRegex.MatchString(id) {
		return nil, &ValidationError{Msg: fmt.Sprintf("invalid group id %q: want %s", id, groupIDPattern)}
	}
	roster, err := normalizeRoster(agents)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	if existing != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("group %s already exists", id)}
	}

	group := &models.Group{ID: id, Agents: roster, CreatedAt: time.Now().UTC()}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	metrics.GroupsCreated.Inc()
	s.recordEvent(ctx, models.EventGroupCreated, id, "", "", 0)
	s.logger.Info().Str("group", id).Int("agents", len(roster)).Msg("group created")
	return group, nil
}

// AddAgents extends a group's roster, preserving insertion order.
// Addresses already on the roster are skipped, so the call is
// idempotent.
func (s *Service) AddAgents(ctx context.Context, id string, agents []string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	if group == nil {
		return nil, &NotFoundError{Resource: "group", ID: id}
	}

	roster, err := normalizeRoster(agents)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, &ValidationError{Msg: "no agents given"}
	}

	added := lo.Filter(roster, func(addr string, _ int) bool {
		return !group.HasAgent(addr)
	})
	if len(added) == 0 {
		return group, nil
	}

	if err := s.store.AddAgents(ctx, id, added); err != nil {
		return nil, fmt.Errorf("add agents: %w", err)
	}
	group.Agents = append(group.Agents, added...)
	return group, nil
}

// Groups lists every group with its full roster.
func (s *Service) Groups(ctx context.Context) ([]models.Group, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// normalizeRoster trims addresses, drops empties, deduplicates keeping
// first occurrence, and validates what remains. Invalid addresses are
// all named in the error rather than just the first.
func normalizeRoster(agents []string) ([]string, error) {
	roster := lo.Uniq(NormalizeRecipients(agents))
	invalid := lo.Filter(roster, func(addr string, _ int) bool {
		return !addressRegex.MatchString(addr)
	})
	if len(invalid) > 0 {
		return nil, &ValidationError{Msg: fmt.Sprintf("invalid agent address(es): %s", strings.Join(invalid, ", "))}
	}
	return roster, nil
}

// checkMembership rejects a send unless the sender and every recipient
// are on the group roster. It fails closed and names every unknown
// address.
func checkMembership(group *models.Group, from string, to []string) error {
	var unknown []string
	if !group.HasAgent(from) {
		unknown = append(unknown, from)
	}
	for _, addr := range to {
		if !group.HasAgent(addr) && !lo.Contains(unknown, addr) {
			unknown = append(unknown, addr)
		}
	}
	if len(unknown) > 0 {
		return &ValidationError{Msg: fmt.Sprintf("not members of group %s: %s",
			group.ID, strings.Join(unknown, ", "))}
	}
	return nil
}
