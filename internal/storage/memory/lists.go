package memory

import (
	"context"
	"sort"
	"strings"

	"cinepwa/proj/internal/domain/filters"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/storage"

	"github.com/google/uuid"
)

type ListModel struct {
	db *DB
}

func (m *ListModel) Create(_ context.Context, name, ownerID string) (*models.List, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("lists.create"); err != nil {
		return nil, err
	}
	if _, ok := m.db.st.users[ownerID]; !ok {
		return nil, storage.ErrNotFound
	}
	now := m.db.tick()
	list := models.List{ID: uuid.NewString(), Name: name, OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
	m.db.st.lists[list.ID] = list
	m.db.st.members = append(m.db.st.members, models.ListMember{
		ListID:    list.ID,
		UserID:    ownerID,
		Role:      models.RoleOwner,
		CreatedAt: now,
	})
	list.Role = models.RoleOwner
	return &list, nil
}

func (m *ListModel) Get(_ context.Context, id string) (*models.List, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	list, ok := m.db.st.lists[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &list, nil
}

func (m *ListModel) ListForMember(_ context.Context, userID string, f filters.Filters) ([]models.List, error) {
	column, desc := f.SortColumn(), f.SortDirection() == filters.DescSort
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	lists := make([]models.List, 0)
	for _, member := range m.db.st.members {
		if member.UserID != userID {
			continue
		}
		list, ok := m.db.st.lists[member.ListID]
		if !ok {
			continue
		}
		list.Role = member.Role
		lists = append(lists, list)
	}
	sort.SliceStable(lists, func(i, j int) bool {
		a, b := lists[i], lists[j]
		var cmp int
		switch column {
		case "name":
			cmp = strings.Compare(a.Name, b.Name)
		case "updated_at":
			cmp = a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		}
		if cmp == 0 {
			return a.ID < b.ID
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return lists, nil
}

func (m *ListModel) Rename(_ context.Context, id, name string) (*models.List, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("lists.rename"); err != nil {
		return nil, err
	}
	list, ok := m.db.st.lists[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	list.Name = name
	list.UpdatedAt = m.db.tick()
	m.db.st.lists[id] = list
	return &list, nil
}

func (m *ListModel) Delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("lists.delete"); err != nil {
		return err
	}
	if _, ok := m.db.st.lists[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.db.st.lists, id)
	members := m.db.st.members[:0]
	for _, member := range m.db.st.members {
		if member.ListID != id {
			members = append(members, member)
		}
	}
	m.db.st.members = members
	items := m.db.st.items[:0]
	for _, item := range m.db.st.items {
		if item.ListID != id {
			items = append(items, item)
		}
	}
	m.db.st.items = items
	return nil
}

type MemberModel struct {
	db *DB
}

func (m *MemberModel) Get(_ context.Context, listID, userID string) (*models.ListMember, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	i, ok := m.db.st.member(listID, userID)
	if !ok {
		return nil, storage.ErrNotFound
	}
	member := m.db.st.members[i]
	return &member, nil
}

func (m *MemberModel) List(_ context.Context, listID string) ([]models.ListMember, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	members := make([]models.ListMember, 0)
	for _, member := range m.db.st.members {
		if member.ListID == listID {
			members = append(members, member)
		}
	}
	return members, nil
}

func (m *MemberModel) Insert(_ context.Context, member models.ListMember) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("list_members.insert"); err != nil {
		return false, err
	}
	if _, ok := m.db.st.lists[member.ListID]; !ok {
		return false, storage.ErrNotFound
	}
	if _, ok := m.db.st.member(member.ListID, member.UserID); ok {
		return false, nil
	}
	if member.Role == models.RoleOwner {
		for _, existing := range m.db.st.members {
			if existing.ListID == member.ListID && existing.Role == models.RoleOwner {
				return false, storage.ErrConflict
			}
		}
	}
	member.CreatedAt = m.db.tick()
	m.db.st.members = append(m.db.st.members, member)
	return true, nil
}

func (m *MemberModel) SetName(_ context.Context, listID, userID, name string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("list_members.set_name"); err != nil {
		return err
	}
	i, ok := m.db.st.member(listID, userID)
	if !ok {
		return storage.ErrNotFound
	}
	m.db.st.members[i].MemberName = name
	return nil
}

func (m *MemberModel) Delete(_ context.Context, listID, userID string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	i, ok := m.db.st.member(listID, userID)
	if !ok {
		return storage.ErrNotFound
	}
	m.db.st.members = append(m.db.st.members[:i], m.db.st.members[i+1:]...)
	return nil
}

type ItemModel struct {
	db *DB
}

func (m *ItemModel) Insert(_ context.Context, listID string, ref models.ContentRef, addedBy string) (*models.ListItem, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("list_items.insert"); err != nil {
		return nil, err
	}
	if _, ok := m.db.st.lists[listID]; !ok {
		return nil, storage.ErrNotFound
	}
	item := models.ListItem{
		ID:          uuid.NewString(),
		ListID:      listID,
		ContentID:   ref.ID,
		ContentType: ref.MediaType,
		AddedBy:     addedBy,
		CreatedAt:   m.db.tick(),
	}
	m.db.st.items = append(m.db.st.items, item)
	return &item, nil
}

func (m *ItemModel) Get(_ context.Context, id string) (*models.ListItem, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	for _, item := range m.db.st.items {
		if item.ID == id {
			return &item, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *ItemModel) List(_ context.Context, listID string) ([]models.ListItem, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	items := make([]models.ListItem, 0)
	for _, item := range m.db.st.items {
		if item.ListID == listID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *ItemModel) Delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.failure("list_items.delete"); err != nil {
		return err
	}
	for i, item := range m.db.st.items {
		if item.ID == id {
			m.db.st.items = append(m.db.st.items[:i], m.db.st.items[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *ItemModel) ForContent(_ context.Context, userID string, contentID int, contentType models.MediaType) ([]models.ListItem, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	items := make([]models.ListItem, 0)
	for _, item := range m.db.st.items {
		if item.ContentID != contentID || item.ContentType != contentType {
			continue
		}
		if _, ok := m.db.st.member(item.ListID, userID); ok {
			items = append(items, item)
		}
	}
	return items, nil
}
