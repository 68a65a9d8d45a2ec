package storage

import "sort"

const disabledSourcesKey = "sources/disabled"

// DisableSource turns off every command declared by source.
func (s *Storage) DisableSource(source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	disabled, err := s.disabledSources()
	if err != nil {
		return err
	}
	for _, d := range disabled {
		if d == source {
			return nil
		}
	}
	disabled = append(disabled, source)
	sort.Strings(disabled)
	return s.ds.Put(disabledSourcesKey, disabled)
}

func (s *Storage) EnableSource(source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	disabled, err := s.disabledSources()
	if err != nil {
		return err
	}
	updated := make([]string, 0, len(disabled))
	for _, d := range disabled {
		if d != source {
			updated = append(updated, d)
		}
	}
	return s.ds.Put(disabledSourcesKey, updated)
}

func (s *Storage) IsSourceDisabled(source string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	disabled, err := s.disabledSources()
	if err != nil {
		return false, err
	}
	for _, d := range disabled {
		if d == source {
			return true, nil
		}
	}
	return false, nil
}

func (s *Storage) DisabledSources() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabledSources()
}

func (s *Storage) disabledSources() ([]string, error) {
	var disabled []string
	if _, err := s.ds.Get(disabledSourcesKey, &disabled); err != nil {
		return nil, err
	}
	return disabled, nil
}
