package domain

import "strconv"

// CreationStatus is the authoring state of a Creation.
type CreationStatus int8

const (
	CreationArchived CreationStatus = -1
	CreationDraft    CreationStatus = 0
	CreationReview   CreationStatus = 1
	CreationApproved CreationStatus = 2
)

func (s CreationStatus) String() string {
	switch s {
	case CreationArchived:
		return "archived"
	case CreationDraft:
		return "draft"
	case CreationReview:
		return "review"
	case CreationApproved:
		return "approved"
	}
	return "creation_status(" + strconv.Itoa(int(s)) + ")"
}

func (s CreationStatus) IsValid() bool {
	return s >= CreationArchived && s <= CreationApproved
}

var creationTransitions = map[CreationStatus][]CreationStatus{
	CreationDraft:    {CreationReview},
	CreationReview:   {CreationDraft, CreationApproved},
	CreationApproved: {CreationReview, CreationArchived},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Staying in the same status is not a transition.
func (s CreationStatus) CanTransitionTo(next CreationStatus) bool {
	for _, allowed := range creationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Editable reports whether content and metadata may change in this status.
func (s CreationStatus) Editable() bool {
	return s == CreationDraft || s == CreationReview
}

// Deletable reports whether a Creation in this status may be soft-deleted.
func (s CreationStatus) Deletable() bool {
	return s == CreationArchived || s == CreationDraft
}

// PublicationStatus is the editorial state of a Publication.
type PublicationStatus int8

const (
	PublicationRejected  PublicationStatus = -1
	PublicationReview    PublicationStatus = 0
	PublicationApproved  PublicationStatus = 1
	PublicationPublished PublicationStatus = 2
)

func (s PublicationStatus) String() string {
	switch s {
	case PublicationRejected:
		return "rejected"
	case PublicationReview:
		return "review"
	case PublicationApproved:
		return "approved"
	case PublicationPublished:
		return "published"
	}
	return "publication_status(" + strconv.Itoa(int(s)) + ")"
}

func (s PublicationStatus) IsValid() bool {
	return s >= PublicationRejected && s <= PublicationPublished
}

var publicationTransitions = map[PublicationStatus][]PublicationStatus{
	PublicationRejected:  {PublicationReview},
	PublicationReview:    {PublicationRejected, PublicationApproved},
	PublicationApproved:  {PublicationReview, PublicationRejected, PublicationPublished},
	PublicationPublished: {PublicationReview, PublicationRejected},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s PublicationStatus) CanTransitionTo(next PublicationStatus) bool {
	for _, allowed := range publicationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CollectionStatus is the visibility of a Collection.
type CollectionStatus int8

const (
	CollectionArchived CollectionStatus = -1
	CollectionPrivate  CollectionStatus = 0
	CollectionInternal CollectionStatus = 1
	CollectionPublic   CollectionStatus = 2
)

func (s CollectionStatus) String() string {
	switch s {
	case CollectionArchived:
		return "archived"
	case CollectionPrivate:
		return "private"
	case CollectionInternal:
		return "internal"
	case CollectionPublic:
		return "public"
	}
	return "collection_status(" + strconv.Itoa(int(s)) + ")"
}

func (s CollectionStatus) IsValid() bool {
	return s >= CollectionArchived && s <= CollectionPublic
}

// Rating is the audience rating code shared by creations and collections.
type Rating int8

const (
	RatingGeneral           Rating = 0
	RatingParentalGuidance  Rating = 1
	RatingStronglyCautioned Rating = 2
	RatingRestricted        Rating = 3
	RatingAdultsOnly        Rating = 4
	RatingBanned            Rating = 127
)

func (r Rating) IsValid() bool {
	return (r >= RatingGeneral && r <= RatingAdultsOnly) || r == RatingBanned
}

// ChildKind identifies what a collection child row points to.
type ChildKind int8

const (
	ChildCreation    ChildKind = 0
	ChildPublication ChildKind = 1
	ChildCollection  ChildKind = 2
)

func (k ChildKind) IsValid() bool {
	return k >= ChildCreation && k <= ChildCollection
}

func (k ChildKind) String() string {
	switch k {
	case ChildCreation:
		return "creation"
	case ChildPublication:
		return "publication"
	case ChildCollection:
		return "collection"
	}
	return "child_kind(" + strconv.Itoa(int(k)) + ")"
}

// Price is expressed in the platform's unit currency.
type Price int64

const (
	PriceFreeForever Price = -1
	PriceFree        Price = 0
)

func (p Price) IsValid() bool { return p >= PriceFreeForever }

// IsFree reports whether no payment is required.
func (p Price) IsFree() bool { return p <= PriceFree }

// SubscriptionTarget selects which subscription ledger a row belongs to.
type SubscriptionTarget string

const (
	SubscribeCreation   SubscriptionTarget = "creation"
	SubscribeCollection SubscriptionTarget = "collection"
)

func (t SubscriptionTarget) String() string { return string(t) }

func (t SubscriptionTarget) IsValid() bool {
	return t == SubscribeCreation || t == SubscribeCollection
}
