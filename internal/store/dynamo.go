package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/wolfman30/barber-availability/internal/availability"
	"github.com/wolfman30/barber-availability/pkg/logging"
)

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

type businessItem struct {
	PK          string `dynamodbav:"pk"`
	SK          string `dynamodbav:"sk"`
	ID          string `dynamodbav:"id"`
	Name        string `dynamodbav:"name"`
	Description string `dynamodbav:"description,omitempty"`
	Image       string `dynamodbav:"image,omitempty"`
	URL         string `dynamodbav:"url,omitempty"`
	Address     string `dynamodbav:"address,omitempty"`
	City        string `dynamodbav:"city,omitempty"`
	State       string `dynamodbav:"state,omitempty"`
	Zip         string `dynamodbav:"zip,omitempty"`
	Country     string `dynamodbav:"country,omitempty"`
	Phone       string `dynamodbav:"phone,omitempty"`
	Email       string `dynamodbav:"email,omitempty"`
	CreatedAt   string `dynamodbav:"createdAt,omitempty"`
	UpdatedAt   string `dynamodbav:"updatedAt,omitempty"`
}

type serviceItem struct {
	PK          string  `dynamodbav:"pk"`
	SK          string  `dynamodbav:"sk"`
	ID          string  `dynamodbav:"id"`
	BusinessID  string  `dynamodbav:"businessId"`
	Name        string  `dynamodbav:"name"`
	Description string  `dynamodbav:"description,omitempty"`
	Price       float64 `dynamodbav:"price"`
	Duration    int     `dynamodbav:"duration"`
	CreatedAt   string  `dynamodbav:"createdAt,omitempty"`
	UpdatedAt   string  `dynamodbav:"updatedAt,omitempty"`
}

type rangeItem struct {
	Start string `dynamodbav:"start"`
	End   string `dynamodbav:"end"`
}

type availabilityItem struct {
	WeekDay int         `dynamodbav:"weekDay"`
	Range   []rangeItem `dynamodbav:"range"`
}

type staffItem struct {
	PK           string             `dynamodbav:"pk"`
	SK           string             `dynamodbav:"sk"`
	ID           string             `dynamodbav:"id"`
	BusinessID   string             `dynamodbav:"businessId"`
	Name         string             `dynamodbav:"name"`
	Availability []availabilityItem `dynamodbav:"availability"`
	CreatedAt    string             `dynamodbav:"createdAt,omitempty"`
	UpdatedAt    string             `dynamodbav:"updatedAt,omitempty"`
}

type appointmentItem struct {
	PK          string `dynamodbav:"pk"`
	SK          string `dynamodbav:"sk"`
	ID          string `dynamodbav:"id"`
	EmployeeID  string `dynamodbav:"employeeId"`
	Date        string `dynamodbav:"date"`
	InitialTime string `dynamodbav:"initialTime"`
	FinalTime   string `dynamodbav:"finalTime"`
}

// DynamoStore reads businesses, services, staff and appointments from one
// DynamoDB table keyed by pk/sk.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var (
	_ availability.StaffDirectory         = (*DynamoStore)(nil)
	_ availability.ServiceCatalog         = (*DynamoStore)(nil)
	_ availability.AppointmentLedger      = (*DynamoStore)(nil)
	_ availability.RangeAppointmentLedger = (*DynamoStore)(nil)
)

// NewDynamoStore builds a store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoStore {
	if client == nil {
		panic("store: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("store: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{client: client, tableName: tableName, logger: logger}
}

func (s *DynamoStore) GetBusiness(ctx context.Context, businessID string) (availability.Business, error) {
	var item businessItem
	found, err := s.getItem(ctx, businessPartition, businessID, &item)
	if err != nil {
		return availability.Business{}, fmt.Errorf("store: get business %s: %w", businessID, err)
	}
	if !found {
		return availability.Business{}, fmt.Errorf("store: business %s: %w", businessID, availability.ErrNotFound)
	}
	return item.toModel(), nil
}

func (s *DynamoStore) GetService(ctx context.Context, businessID, serviceID string) (availability.Service, error) {
	var item serviceItem
	found, err := s.getItem(ctx, servicePartition(businessID), serviceSortKey(serviceID), &item)
	if err != nil {
		return availability.Service{}, fmt.Errorf("store: get service %s: %w", serviceID, err)
	}
	if !found {
		return availability.Service{}, fmt.Errorf("store: service %s: %w", serviceID, availability.ErrNotFound)
	}
	return item.toModel(), nil
}

func (s *DynamoStore) ListServices(ctx context.Context, businessID string) ([]availability.Service, error) {
	var items []serviceItem
	if err := s.queryAll(ctx, keyEquals(servicePartition(businessID)), &items); err != nil {
		return nil, fmt.Errorf("store: list services for %s: %w", businessID, err)
	}
	services := make([]availability.Service, 0, len(items))
	for _, item := range items {
		services = append(services, item.toModel())
	}
	return services, nil
}

func (s *DynamoStore) GetStaffMember(ctx context.Context, businessID, staffID string) (availability.StaffMember, error) {
	var item staffItem
	found, err := s.getItem(ctx, staffPartition(businessID), staffSortKey(staffID), &item)
	if err != nil {
		return availability.StaffMember{}, fmt.Errorf("store: get staff %s: %w", staffID, err)
	}
	if !found {
		return availability.StaffMember{}, fmt.Errorf("store: staff %s: %w", staffID, availability.ErrNotFound)
	}
	member, err := item.toModel()
	if err != nil {
		return availability.StaffMember{}, fmt.Errorf("store: decode staff %s: %v", staffID, err)
	}
	return member, nil
}

func (s *DynamoStore) ListStaffMembers(ctx context.Context, businessID string) ([]availability.StaffMember, error) {
	var items []staffItem
	if err := s.queryAll(ctx, keyEquals(staffPartition(businessID)), &items); err != nil {
		return nil, fmt.Errorf("store: list staff for %s: %w", businessID, err)
	}
	members := make([]availability.StaffMember, 0, len(items))
	for _, item := range items {
		member, err := item.toModel()
		if err != nil {
			return nil, fmt.Errorf("store: decode staff %s: %v", item.ID, err)
		}
		members = append(members, member)
	}
	return members, nil
}

func (s *DynamoStore) ListAppointments(ctx context.Context, businessID, staffID string, date civil.Date) ([]availability.Appointment, error) {
	cond := queryCondition{
		expression: "pk = :pk AND begins_with(sk, :prefix)",
		values: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: appointmentPartition(businessID)},
			":prefix": &types.AttributeValueMemberS{Value: appointmentDayPrefix(staffID, date)},
		},
	}
	return s.queryAppointments(ctx, cond)
}

func (s *DynamoStore) ListAppointmentsBetween(ctx context.Context, businessID, staffID string, from, to civil.Date) ([]availability.Appointment, error) {
	if from.After(to) {
		return []availability.Appointment{}, nil
	}
	lo, hi := appointmentRangeBounds(staffID, from, to)
	cond := queryCondition{
		expression: "pk = :pk AND sk BETWEEN :lo AND :hi",
		values: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: appointmentPartition(businessID)},
			":lo": &types.AttributeValueMemberS{Value: lo},
			":hi": &types.AttributeValueMemberS{Value: hi},
		},
	}
	return s.queryAppointments(ctx, cond)
}

func (s *DynamoStore) queryAppointments(ctx context.Context, cond queryCondition) ([]availability.Appointment, error) {
	var items []appointmentItem
	if err := s.queryAll(ctx, cond, &items); err != nil {
		return nil, fmt.Errorf("store: query appointments: %w", err)
	}
	appts := make([]availability.Appointment, 0, len(items))
	for _, item := range items {
		appt, err := item.toModel()
		if err != nil {
			return nil, fmt.Errorf("store: decode appointment %s: %v", item.ID, err)
		}
		appts = append(appts, appt)
	}
	return appts, nil
}

// PutBusiness writes or replaces a business record.
func (s *DynamoStore) PutBusiness(ctx context.Context, b availability.Business) error {
	return s.putItem(ctx, businessItemFrom(b))
}

func (s *DynamoStore) PutService(ctx context.Context, svc availability.Service) error {
	return s.putItem(ctx, serviceItemFrom(svc))
}

// PutStaffMember rejects schedules that fail WeeklyAvailability.Validate.
func (s *DynamoStore) PutStaffMember(ctx context.Context, m availability.StaffMember) error {
	if err := m.Availability.Validate(); err != nil {
		return fmt.Errorf("store: staff %s: %w", m.ID, err)
	}
	return s.putItem(ctx, staffItemFrom(m))
}

func (s *DynamoStore) PutAppointment(ctx context.Context, businessID string, a availability.Appointment) error {
	return s.putItem(ctx, appointmentItemFrom(businessID, a))
}

func (s *DynamoStore) putItem(ctx context.Context, record any) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("store: failed to marshal item: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("store: failed to put item: %w", err)
	}
	return nil
}

func (s *DynamoStore) getItem(ctx context.Context, pk, sk string, out any) (bool, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: pk},
			"sk": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return false, err
	}
	if resp.Item == nil {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(resp.Item, out); err != nil {
		return false, fmt.Errorf("decode item: %w", err)
	}
	return true, nil
}

type queryCondition struct {
	expression string
	values     map[string]types.AttributeValue
}

func keyEquals(pk string) queryCondition {
	return queryCondition{
		expression: "pk = :pk",
		values:     map[string]types.AttributeValue{":pk": &types.AttributeValueMemberS{Value: pk}},
	}
}

// queryAll follows LastEvaluatedKey until the partition is exhausted and
// decodes every page into out, which must point to a slice.
func (s *DynamoStore) queryAll(ctx context.Context, cond queryCondition, out any) error {
	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	pages := 0
	for {
		resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.tableName),
			KeyConditionExpression:    aws.String(cond.expression),
			ExpressionAttributeValues: cond.values,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return err
		}
		pages++
		items = append(items, resp.Items...)
		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKey = resp.LastEvaluatedKey
	}
	if pages > 1 {
		s.logger.Debug("dynamodb query paginated", "pages", pages, "items", len(items))
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("decode items: %w", err)
	}
	return nil
}

func (i businessItem) toModel() availability.Business {
	return availability.Business{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Image:       i.Image,
		URL:         i.URL,
		Address:     i.Address,
		City:        i.City,
		State:       i.State,
		Zip:         i.Zip,
		Country:     i.Country,
		Phone:       i.Phone,
		Email:       i.Email,
		CreatedAt:   parseTimestamp(i.CreatedAt),
		UpdatedAt:   parseTimestamp(i.UpdatedAt),
	}
}

func businessItemFrom(b availability.Business) businessItem {
	return businessItem{
		PK:          businessPartition,
		SK:          b.ID,
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Image:       b.Image,
		URL:         b.URL,
		Address:     b.Address,
		City:        b.City,
		State:       b.State,
		Zip:         b.Zip,
		Country:     b.Country,
		Phone:       b.Phone,
		Email:       b.Email,
		CreatedAt:   formatTimestamp(b.CreatedAt),
		UpdatedAt:   formatTimestamp(b.UpdatedAt),
	}
}

func (i serviceItem) toModel() availability.Service {
	return availability.Service{
		ID:          i.ID,
		BusinessID:  i.BusinessID,
		Name:        i.Name,
		Description: i.Description,
		Price:       i.Price,
		Duration:    i.Duration,
		CreatedAt:   parseTimestamp(i.CreatedAt),
		UpdatedAt:   parseTimestamp(i.UpdatedAt),
	}
}

func serviceItemFrom(svc availability.Service) serviceItem {
	return serviceItem{
		PK:          servicePartition(svc.BusinessID),
		SK:          serviceSortKey(svc.ID),
		ID:          svc.ID,
		BusinessID:  svc.BusinessID,
		Name:        svc.Name,
		Description: svc.Description,
		Price:       svc.Price,
		Duration:    svc.Duration,
		CreatedAt:   formatTimestamp(svc.CreatedAt),
		UpdatedAt:   formatTimestamp(svc.UpdatedAt),
	}
}

func (i staffItem) toModel() (availability.StaffMember, error) {
	weekly := make(availability.WeeklyAvailability, 0, len(i.Availability))
	for _, entry := range i.Availability {
		ranges := make([]availability.TimeRange, 0, len(entry.Range))
		for _, r := range entry.Range {
			start, err := availability.ParseTimeOfDay(r.Start)
			if err != nil {
				return availability.StaffMember{}, err
			}
			end, err := availability.ParseTimeOfDay(r.End)
			if err != nil {
				return availability.StaffMember{}, err
			}
			ranges = append(ranges, availability.TimeRange{Start: start, End: end})
		}
		weekly = append(weekly, availability.AvailabilityEntry{Weekday: time.Weekday(entry.WeekDay), Ranges: ranges})
	}
	if err := weekly.Validate(); err != nil {
		return availability.StaffMember{}, err
	}
	return availability.StaffMember{
		ID:           i.ID,
		BusinessID:   i.BusinessID,
		Name:         i.Name,
		Availability: weekly,
		CreatedAt:    parseTimestamp(i.CreatedAt),
		UpdatedAt:    parseTimestamp(i.UpdatedAt),
	}, nil
}

func staffItemFrom(m availability.StaffMember) staffItem {
	entries := make([]availabilityItem, 0, len(m.Availability))
	for _, entry := range m.Availability {
		ranges := make([]rangeItem, 0, len(entry.Ranges))
		for _, r := range entry.Ranges {
			ranges = append(ranges, rangeItem{Start: r.Start.String(), End: r.End.String()})
		}
		entries = append(entries, availabilityItem{WeekDay: int(entry.Weekday), Range: ranges})
	}
	return staffItem{
		PK:           staffPartition(m.BusinessID),
		SK:           staffSortKey(m.ID),
		ID:           m.ID,
		BusinessID:   m.BusinessID,
		Name:         m.Name,
		Availability: entries,
		CreatedAt:    formatTimestamp(m.CreatedAt),
		UpdatedAt:    formatTimestamp(m.UpdatedAt),
	}
}

func (i appointmentItem) toModel() (availability.Appointment, error) {
	date, err := civil.ParseDate(i.Date)
	if err != nil {
		return availability.Appointment{}, fmt.Errorf("%w: date %q", availability.ErrInvalidArgument, i.Date)
	}
	initial, err := availability.ParseTimeOfDay(i.InitialTime)
	if err != nil {
		return availability.Appointment{}, err
	}
	final, err := availability.ParseTimeOfDay(i.FinalTime)
	if err != nil {
		return availability.Appointment{}, err
	}
	return availability.Appointment{
		ID:          i.ID,
		StaffID:     i.EmployeeID,
		Date:        date,
		InitialTime: initial,
		FinalTime:   final,
	}, nil
}

func appointmentItemFrom(businessID string, a availability.Appointment) appointmentItem {
	return appointmentItem{
		PK:          appointmentPartition(businessID),
		SK:          appointmentSortKey(a.StaffID, a.Date, a.ID),
		ID:          a.ID,
		EmployeeID:  a.StaffID,
		Date:        a.Date.String(),
		InitialTime: a.InitialTime.String(),
		FinalTime:   a.FinalTime.String(),
	}
}
