package reconcile

import (
	"testing"

	"docmgr/internal/model"

	"github.com/stretchr/testify/assert"
)

func char(id, name, value string) model.DocumentCharacteristic {
	c := model.DocumentCharacteristic{Name: name, Value: value}
	c.ID = id
	return c
}

func charID(c model.DocumentCharacteristic) string { return c.ID }

func charMerge(persisted, incoming model.DocumentCharacteristic) model.DocumentCharacteristic {
	persisted.Name = incoming.Name
	persisted.Value = incoming.Value
	return persisted
}

func TestCollection(t *testing.T) {
	existing := []model.DocumentCharacteristic{
		char("c1", "color", "red"),
		char("c2", "weight", "10"),
		char("c3", "height", "2"),
	}

	t.Run("omitted item is removed, matched item updated in place, id-less added", func(t *testing.T) {
		incoming := []model.DocumentCharacteristic{
			char("c1", "color", "blue"),
			char("", "depth", "5"),
		}

		out := Collection(existing, incoming, charID, charMerge)

		assert.Len(t, out.Kept, 1)
		assert.Equal(t, "c1", out.Kept[0].ID)
		assert.Equal(t, "blue", out.Kept[0].Value)

		assert.Len(t, out.Added, 1)
		assert.Equal(t, "depth", out.Added[0].Name)

		removed := []string{out.Removed[0].ID, out.Removed[1].ID}
		assert.ElementsMatch(t, []string{"c2", "c3"}, removed)

		assert.Empty(t, out.IgnoredIDs)
	})

	t.Run("empty incoming set removes everything", func(t *testing.T) {
		out := Collection(existing, nil, charID, charMerge)

		assert.Empty(t, out.Kept)
		assert.Empty(t, out.Added)
		assert.Len(t, out.Removed, 3)
	})

	t.Run("unmatched incoming id is ignored but surfaced", func(t *testing.T) {
		incoming := []model.DocumentCharacteristic{
			char("c1", "color", "green"),
			char("gone", "ghost", "x"),
		}

		out := Collection(existing, incoming, charID, charMerge)

		assert.Len(t, out.Kept, 1)
		assert.Empty(t, out.Added)
		assert.Equal(t, []string{"gone"}, out.IgnoredIDs)
	})

	t.Run("no existing items, everything id-less is added", func(t *testing.T) {
		incoming := []model.DocumentCharacteristic{
			char("", "a", "1"),
			char("", "b", "2"),
		}

		out := Collection(nil, incoming, charID, charMerge)

		assert.Empty(t, out.Kept)
		assert.Empty(t, out.Removed)
		assert.Len(t, out.Added, 2)
	})
}

func chanID(c *model.Channel) string { return c.ID }

func chanMerge(persisted, incoming *model.Channel) *model.Channel {
	persisted.Name = incoming.Name
	return persisted
}

func chanCreate(incoming *model.Channel) *model.Channel {
	c := &model.Channel{Name: incoming.Name}
	c.ID = "fresh"
	return c
}

func TestSingleton(t *testing.T) {
	persisted := &model.Channel{Name: "web"}
	persisted.ID = "ch1"

	t.Run("absent incoming clears", func(t *testing.T) {
		got, action := Singleton(persisted, nil, chanID, chanMerge, chanCreate)
		assert.Nil(t, got)
		assert.Equal(t, SingletonCleared, action)
	})

	t.Run("id-less incoming replaces with a new child", func(t *testing.T) {
		got, action := Singleton(persisted, &model.Channel{Name: "mobile"}, chanID, chanMerge, chanCreate)
		assert.Equal(t, SingletonCreated, action)
		assert.Equal(t, "fresh", got.ID)
		assert.Equal(t, "mobile", got.Name)
	})

	t.Run("incoming with id updates in place", func(t *testing.T) {
		in := &model.Channel{Name: "kiosk"}
		in.ID = "ch1"

		got, action := Singleton(persisted, in, chanID, chanMerge, chanCreate)
		assert.Equal(t, SingletonUpdated, action)
		assert.Same(t, persisted, got)
		assert.Equal(t, "kiosk", got.Name)
	})

	t.Run("incoming id with nothing persisted creates fresh", func(t *testing.T) {
		in := &model.Channel{Name: "store"}
		in.ID = "ch9"

		got, action := Singleton(nil, in, chanID, chanMerge, chanCreate)
		assert.Equal(t, SingletonCreated, action)
		assert.Equal(t, "fresh", got.ID)
	})
}
