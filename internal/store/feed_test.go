package store

import (
	"testing"
)

func TestFeed_NotifyReachesSubscriber(t *testing.T) {
	feed := NewFeed(nil)
	sub := feed.Subscribe(TableSales)
	defer sub.Unsubscribe()

	feed.Notify(TableSales)

	select {
	case <-sub.C:
	default:
		t.Error("expected a change signal")
	}
}

func TestFeed_NotifyCoalescesAndNeverBlocks(t *testing.T) {
	feed := NewFeed(nil)
	sub := feed.Subscribe(TableSales)
	defer sub.Unsubscribe()

	// a lagging subscriber must not block the notifier
	for i := 0; i < 10; i++ {
		feed.Notify(TableSales)
	}

	<-sub.C
	select {
	case <-sub.C:
		t.Error("signals should coalesce into a single pending notification")
	default:
	}
}

func TestFeed_TablesAreIndependent(t *testing.T) {
	feed := NewFeed(nil)
	salesSub := feed.Subscribe(TableSales)
	filesSub := feed.Subscribe(TableFiles)
	defer salesSub.Unsubscribe()
	defer filesSub.Unsubscribe()

	feed.Notify(TableFiles)

	select {
	case <-salesSub.C:
		t.Error("sales subscriber received a files signal")
	default:
	}
	select {
	case <-filesSub.C:
	default:
		t.Error("files subscriber missed its signal")
	}
}

func TestFeed_UnsubscribeStopsDelivery(t *testing.T) {
	feed := NewFeed(nil)
	sub := feed.Subscribe(TableSales)
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	feed.Notify(TableSales)

	select {
	case <-sub.C:
		t.Error("unsubscribed listener still received a signal")
	default:
	}
}

type countingPublisher struct {
	tables []string
}

func (p *countingPublisher) Publish(table string) error {
	p.tables = append(p.tables, table)
	return nil
}

func TestFeed_PublisherMirrorsSignals(t *testing.T) {
	feed := NewFeed(nil)
	pub := &countingPublisher{}
	feed.SetPublisher(pub)

	feed.Notify(TableSales)
	feed.Notify(TableFiles)

	if len(pub.tables) != 2 || pub.tables[0] != TableSales || pub.tables[1] != TableFiles {
		t.Errorf("published = %v, want [sales files]", pub.tables)
	}
}
